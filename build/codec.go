package build

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/local-minima-lab/arbor/client"
	"github.com/local-minima-lab/arbor/tree"
	treejson "github.com/local-minima-lab/arbor/tree/json"
)

type wireState struct {
	ID           string             `json:"id"`
	Tree         json.RawMessage    `json:"tree"`
	Phase        int                `json:"phase"`
	Selected     string             `json:"selected_path"`
	HasSelection bool               `json:"has_selection"`
	Feature      string             `json:"feature,omitempty"`
	Threshold    float64            `json:"threshold,omitempty"`
	Metrics      *client.Metrics    `json:"metrics,omitempty"`
	Criterion    string             `json:"criterion,omitempty"`
	Dataset      *client.DatasetRef `json:"dataset,omitempty"`
}

/*
EncodeState serializes a session state as JSON, with the tree in
its backend wire shape. Redis and MongoDB session stores persist
states in this encoding.
*/
func EncodeState(st *State) ([]byte, error) {
	rawTree, err := treejson.MarshalNode(st.Tree)
	if err != nil {
		return nil, fmt.Errorf("encoding session %q: %v", st.ID, err)
	}
	return json.Marshal(&wireState{
		ID:           st.ID,
		Tree:         rawTree,
		Phase:        int(st.Phase),
		Selected:     pathDigits(st.Selected),
		HasSelection: st.HasSelection,
		Feature:      st.Feature,
		Threshold:    st.Threshold,
		Metrics:      st.Metrics,
		Criterion:    st.Criterion,
		Dataset:      st.Dataset,
	})
}

/*
DecodeState parses a session state previously produced by
EncodeState.
*/
func DecodeState(data []byte) (*State, error) {
	w := &wireState{}
	if err := json.Unmarshal(data, w); err != nil {
		return nil, fmt.Errorf("decoding session state: %v", err)
	}
	root, err := treejson.UnmarshalNode(w.Tree)
	if err != nil {
		return nil, fmt.Errorf("decoding session %q: %v", w.ID, err)
	}
	selected, err := tree.ParsePath(w.Selected)
	if err != nil {
		return nil, fmt.Errorf("decoding session %q: %v", w.ID, err)
	}
	return &State{
		ID:           w.ID,
		Tree:         root,
		Phase:        Phase(w.Phase),
		Selected:     selected,
		HasSelection: w.HasSelection,
		Feature:      w.Feature,
		Threshold:    w.Threshold,
		Metrics:      w.Metrics,
		Criterion:    w.Criterion,
		Dataset:      w.Dataset,
	}, nil
}

func pathDigits(p tree.Path) string {
	var b strings.Builder
	for _, d := range p {
		if d == tree.GoLeft {
			b.WriteByte('0')
		} else {
			b.WriteByte('1')
		}
	}
	return b.String()
}
