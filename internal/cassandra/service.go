package cassandra

import (
	"context"

	"github.com/dreamware/kronos/internal/ktime"
	"github.com/dreamware/kronos/internal/storage"
)

// Service is the Cassandra-backed storage.Storage implementation: the
// counterpart of the original CassandraStorage, built on top of a
// Registry of per-namespace keyspaces and Streams.
type Service struct {
	registry *Registry
}

// NewService wraps a Registry as a storage.Storage.
func NewService(registry *Registry) *Service {
	return &Service{registry: registry}
}

var _ storage.Storage = (*Service)(nil)

func (s *Service) IsAlive() bool {
	for _, name := range s.registry.Names() {
		ns, err := s.registry.Namespace(name)
		if err != nil || !ns.IsAlive() {
			return false
		}
	}
	return true
}

func (s *Service) stream(namespace, name string, cfg storage.StreamConfig) (*Stream, error) {
	ns, err := s.registry.Namespace(namespace)
	if err != nil {
		return nil, err
	}
	width, err := ktime.SecondsToKronosTime(float64(cfg.TimewidthSeconds))
	if err != nil {
		return nil, &storage.OverflowError{Err: err}
	}
	return ns.GetStream(name, width, cfg.ShardsPerBucket)
}

func (s *Service) Insert(ctx context.Context, namespace, name string, events []storage.Event, cfg storage.StreamConfig) (storage.InsertResult, error) {
	st, err := s.stream(namespace, name, cfg)
	if err != nil {
		return storage.InsertResult{}, err
	}
	return st.Insert(ctx, events)
}

func (s *Service) Retrieve(ctx context.Context, namespace, name string, startID ktime.EventId, endTime ktime.KronosTime, order storage.ResultOrder, limit int, cfg storage.StreamConfig) (storage.EventIterator, error) {
	st, err := s.stream(namespace, name, cfg)
	if err != nil {
		return nil, err
	}
	return st.Retrieve(ctx, startID, endTime, order, limit)
}

func (s *Service) Delete(ctx context.Context, namespace, name string, startID ktime.EventId, endTime ktime.KronosTime, cfg storage.StreamConfig) (storage.DeleteResult, error) {
	st, err := s.stream(namespace, name, cfg)
	if err != nil {
		return storage.DeleteResult{}, err
	}
	return st.Delete(ctx, startID, endTime)
}

func (s *Service) Streams(ctx context.Context, namespace string) ([]string, error) {
	ns, err := s.registry.Namespace(namespace)
	if err != nil {
		return nil, err
	}
	return ns.ListStreams()
}

// Clear drops every namespace's keyspace this process has created. It is
// a test/ops convenience only, grounded on spec §4.5's scoped-cleanup
// Non-goal: nothing autonomously clears data outside of this explicit call.
func (s *Service) Clear(ctx context.Context) error {
	for _, name := range s.registry.Names() {
		ns, err := s.registry.Namespace(name)
		if err != nil {
			return err
		}
		if err := ns.sess.Query(`DROP KEYSPACE IF EXISTS ` + ns.keyspace).WithContext(ctx).Exec(); err != nil {
			return &storage.StorageError{Op: "clear keyspace", Err: err}
		}
	}
	return nil
}
