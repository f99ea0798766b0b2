/*
Package mongostore provides an implementation of build.SessionStore
backed by a MongoDB collection.
*/
package mongostore

import (
	"context"
	"fmt"

	"gopkg.in/mgo.v2"
	"gopkg.in/mgo.v2/bson"

	"github.com/local-minima-lab/arbor/build"
)

const sessionsCollection = "sessions"

type mongoStore struct {
	session *mgo.Session
	nextID  func() string
}

type sessionDoc struct {
	ID    string `bson:"id"`
	State []byte `bson:"state"`
}

/*
Open opens a connection to the MongoDB server or cluster at the
given URL and returns a build.SessionStore backed by it, or an
error if the connection could not be established or the required
indexes could not be ensured.
*/
func Open(url string) (build.SessionStore, error) {
	session, err := mgo.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connecting to mongodb server at %q: %v", url, err)
	}
	ms := &mongoStore{session: session, nextID: func() string { return randString(20) }}
	err = ms.ensureIndexes()
	if err != nil {
		session.Close()
		return nil, err
	}
	return ms, nil
}

func (ms *mongoStore) Create(ctx context.Context, st *build.State) error {
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		st.ID = ms.nextID()
		data, err := build.EncodeState(st)
		if err != nil {
			return fmt.Errorf("creating session: encoding state: %v", err)
		}
		err = ms.sessions().Insert(&sessionDoc{ID: st.ID, State: data})
		if err == nil {
			return nil
		}
		if !mgo.IsDup(err) {
			return fmt.Errorf("creating session on mongodb: %v", err)
		}
	}
}

func (ms *mongoStore) Get(ctx context.Context, id string) (*build.State, error) {
	var doc sessionDoc
	err := ms.sessions().Find(bson.M{"id": id}).One(&doc)
	if err == mgo.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("retrieving session %q from mongodb: %v", id, err)
	}
	st, err := build.DecodeState(doc.State)
	if err != nil {
		return nil, fmt.Errorf("retrieving session %q: decoding state: %v", id, err)
	}
	return st, nil
}

func (ms *mongoStore) Store(ctx context.Context, st *build.State) error {
	data, err := build.EncodeState(st)
	if err != nil {
		return fmt.Errorf("storing session %q: encoding state: %v", st.ID, err)
	}
	_, err = ms.sessions().Upsert(bson.M{"id": st.ID}, &sessionDoc{ID: st.ID, State: data})
	if err != nil {
		return fmt.Errorf("storing session %q on mongodb: %v", st.ID, err)
	}
	return nil
}

func (ms *mongoStore) Delete(ctx context.Context, id string) error {
	err := ms.sessions().Remove(bson.M{"id": id})
	if err != nil && err != mgo.ErrNotFound {
		return fmt.Errorf("deleting session %q from mongodb: %v", id, err)
	}
	return nil
}

func (ms *mongoStore) Close(ctx context.Context) error {
	ms.session.Close()
	return nil
}

func (ms *mongoStore) sessions() *mgo.Collection {
	return ms.session.DB("").C(sessionsCollection)
}

func (ms *mongoStore) ensureIndexes() error {
	err := ms.sessions().EnsureIndex(mgo.Index{
		Key:    []string{"id"},
		Unique: true,
	})
	if err != nil {
		return fmt.Errorf("ensuring index on sessions collection: %v", err)
	}
	return nil
}
