package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/local-minima-lab/arbor/render"
	"github.com/local-minima-lab/arbor/tree"
	treejson "github.com/local-minima-lab/arbor/tree/json"
)

func loadTree(path string) (tree.Node, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening tree file %q: %v", path, err)
	}
	defer f.Close()
	n, err := treejson.ReadTree(f)
	if err != nil {
		return nil, fmt.Errorf("parsing tree file %q: %v", path, err)
	}
	return n, nil
}

func saveTree(path string, n tree.Node) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating tree file %q: %v", path, err)
	}
	defer f.Close()
	err = treejson.WriteTree(f, n)
	if err != nil {
		return fmt.Errorf("writing tree file %q: %v", path, err)
	}
	return nil
}

// parsePoint parses "feature=value" pairs separated by commas.
func parsePoint(s string) (map[string]float64, error) {
	point := map[string]float64{}
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		parts := strings.SplitN(pair, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid point component %q: expected feature=value", pair)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid value for feature %q: %v", parts[0], err)
		}
		point[strings.TrimSpace(parts[0])] = v
	}
	if len(point) == 0 {
		return nil, fmt.Errorf("point declares no feature values")
	}
	return point, nil
}

/*
writeFrames renders the playback of mode over root as a numbered
sequence of SVG files in dir, framesPerStep frames per step from
step 0 to maxStep. Frame steps come from a render.Playback driven
by a synthetic clock advancing one tick per frame, so offline
output goes through the same stepper interactive playback uses.
*/
func writeFrames(dir string, root tree.Node, mode render.Mode, maxStep float64, framesPerStep int, l render.Layout, classNames []string) error {
	err := os.MkdirAll(dir, 0755)
	if err != nil {
		return fmt.Errorf("creating frames directory %q: %v", dir, err)
	}
	if framesPerStep <= 0 {
		framesPerStep = 2
	}
	playback := render.NewPlayback(time.Second, maxStep)
	clock := time.Unix(0, 0)
	playback.SetClock(func() time.Time { return clock })
	playback.Start()

	tick := time.Second / time.Duration(framesPerStep)
	for i := 0; ; i++ {
		sc := render.Compose(root, mode, playback.Step(), l, classNames)
		path := filepath.Join(dir, fmt.Sprintf("frame-%03d.svg", i))
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("creating frame %q: %v", path, err)
		}
		err = render.WriteSVG(f, sc, l)
		f.Close()
		if err != nil {
			return fmt.Errorf("writing frame %q: %v", path, err)
		}
		if playback.Done() {
			return nil
		}
		clock = clock.Add(tick)
	}
}
