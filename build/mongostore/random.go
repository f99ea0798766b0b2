package mongostore

import (
	"math/rand"
	"sync"
	"time"
)

const chars = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

type lockedRandSource struct {
	lock sync.Mutex
	src  rand.Source
}

var random = rand.New(&lockedRandSource{src: rand.NewSource(time.Now().UnixNano())})

func randString(n int) string {
	result := make([]byte, n)
	for i := range result {
		result[i] = chars[random.Intn(len(chars))]
	}
	return string(result)
}

func (r *lockedRandSource) Int63() int64 {
	r.lock.Lock()
	ret := r.src.Int63()
	r.lock.Unlock()
	return ret
}

func (r *lockedRandSource) Seed(seed int64) {
	r.lock.Lock()
	r.src.Seed(seed)
	r.lock.Unlock()
}
