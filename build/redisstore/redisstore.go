/*
Package redisstore provides an implementation of build.SessionStore
backed by a redis database, so manual-build sessions survive
process restarts and can be shared between processes.
*/
package redisstore

import (
	"context"
	"fmt"

	"gopkg.in/redis.v5"

	"github.com/local-minima-lab/arbor/build"
)

/*
StateEncodeDecoder is an interface for objects that allow encoding
session states into slices of bytes and decoding them back to
states.
*/
type StateEncodeDecoder interface {
	// Encode receives a *build.State and returns a slice of bytes
	// with the state encoded, or an error if the encoding could
	// not be performed for some reason.
	Encode(*build.State) ([]byte, error)
	// Decode receives a slice of bytes and returns a *build.State
	// decoded from it, or an error if the decoding could not be
	// performed for some reason.
	Decode([]byte) (*build.State, error)
}

type redisStore struct {
	rc      *redis.Client
	prefix  string
	sencdec StateEncodeDecoder
}

// New builds a build.SessionStore backed by a redis DB. Keys are
// namespaced under the given prefix. A nil StateEncodeDecoder
// defaults to the build package's JSON state encoding.
func New(rc *redis.Client, prefix string, sencdec StateEncodeDecoder) build.SessionStore {
	if sencdec == nil {
		sencdec = jsonEncodeDecoder{}
	}
	return &redisStore{rc, prefix, sencdec}
}

func (rs *redisStore) Create(ctx context.Context, st *build.State) error {
	var ok bool
	for !ok {
		st.ID = randString(20)
		data, err := rs.sencdec.Encode(st)
		if err != nil {
			return fmt.Errorf("creating session: encoding state: %v", err)
		}
		ok, err = rs.rc.SetNX(rs.keyFor(st.ID), data, 0).Result()
		if err != nil {
			return fmt.Errorf("creating session in redis: %v", err)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return nil
}

func (rs *redisStore) Get(ctx context.Context, id string) (*build.State, error) {
	data, err := rs.rc.Get(rs.keyFor(id)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("retrieving session %q: %v", id, err)
	}
	if data == "" {
		return nil, nil
	}
	st, err := rs.sencdec.Decode([]byte(data))
	if err != nil {
		return nil, fmt.Errorf("retrieving session %q: decoding state: %v", id, err)
	}
	return st, nil
}

func (rs *redisStore) Store(ctx context.Context, st *build.State) error {
	redisID := rs.keyFor(st.ID)
	data, err := rs.sencdec.Encode(st)
	if err != nil {
		return fmt.Errorf("storing session %q: encoding state: %v", redisID, err)
	}
	_, err = rs.rc.Set(redisID, data, 0).Result()
	if err != nil {
		return fmt.Errorf("storing session %q in redis: %v", redisID, err)
	}
	return nil
}

func (rs *redisStore) Delete(ctx context.Context, id string) error {
	redisID := rs.keyFor(id)
	_, err := rs.rc.Del(redisID).Result()
	if err != nil {
		return fmt.Errorf("deleting session %q from redis: %v", redisID, err)
	}
	return nil
}

func (rs *redisStore) Close(ctx context.Context) error {
	return nil
}

func (rs *redisStore) keyFor(id string) string {
	return fmt.Sprintf("%s:%s", rs.prefix, id)
}

type jsonEncodeDecoder struct{}

func (jsonEncodeDecoder) Encode(st *build.State) ([]byte, error) {
	return build.EncodeState(st)
}

func (jsonEncodeDecoder) Decode(data []byte) (*build.State, error) {
	return build.DecodeState(data)
}
