package cassandra

import (
	"fmt"
	"sync"

	"github.com/gocql/gocql"
	"github.com/rs/zerolog"

	"github.com/dreamware/kronos/internal/config"
	"github.com/dreamware/kronos/internal/storage"
)

// dialSessionFunc is the type of Registry.dialFn, which tests override so a
// Registry can be exercised without a live cluster; production code leaves
// it at its default, dialGocqlNamespaceSession, which opens a real gocql
// session.
type dialSessionFunc func(cluster *gocql.ClusterConfig, keyspace string) (session, error)

// Registry owns the one cluster configuration shared by every namespace in
// a process, the way the original's CassandraStorage owned one *Cluster for
// all of its Namespace instances; each Namespace it creates opens its own
// session from that configuration. It supplements spec §4.2,
// which describes a single Namespace's behavior but not how a process
// manages several.
type Registry struct {
	cluster    *gocql.ClusterConfig
	settings   config.NamespaceSettings
	log        zerolog.Logger
	dialFn     dialSessionFunc
	mu         sync.Mutex
	namespaces map[string]*Namespace
	closed     bool
}

// NewRegistry builds a Registry from already-validated NamespaceSettings.
// Protocol version is pinned at 2 unconditionally, per spec §9's open
// question: the source used protocol version 2 unconditionally, and
// whether later protocols are required is left to configuration — this
// implementation does not guess past what spec.md mandates.
func NewRegistry(settings config.NamespaceSettings, log zerolog.Logger) *Registry {
	cluster := gocql.NewCluster(settings.Hosts...)
	cluster.ProtoVersion = 2
	cluster.Consistency = gocql.Quorum

	return &Registry{
		cluster:    cluster,
		settings:   settings,
		log:        log,
		dialFn:     dialGocqlNamespaceSession,
		namespaces: make(map[string]*Namespace),
	}
}

// dialGocqlNamespaceSession opens a session against cluster. An empty
// keyspace opens a keyspace-less bootstrap session, used only to issue
// CREATE KEYSPACE before the keyspace exists; a non-empty keyspace opens
// the session a Namespace runs everything else through.
func dialGocqlNamespaceSession(cluster *gocql.ClusterConfig, keyspace string) (session, error) {
	if keyspace == "" {
		return newGocqlSession(cluster)
	}
	withKeyspace := *cluster
	withKeyspace.Keyspace = keyspace
	return newGocqlSession(&withKeyspace)
}

// Namespace returns the Namespace for name, creating its keyspace and
// schema on first use. Concurrent first-use of the same namespace name is
// guarded so only one keyspace/schema bootstrap happens and every caller
// observes the same *Namespace: r.mu is held across the bootstrap, so a
// second caller waits and then receives the first caller's Namespace
// without starting a bootstrap of its own.
func (r *Registry) Namespace(name string) (*Namespace, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, &storage.StorageError{Op: "Namespace", Err: fmt.Errorf("registry is closed")}
	}
	if ns, ok := r.namespaces[name]; ok {
		return ns, nil
	}

	keyspace := fmt.Sprintf("%s_%s", r.settings.KeyspacePrefix, name)
	ns, err := newNamespace(r.cluster, keyspace, r.settings.ReplicationFactor, r.settings.ReadSize, r.dialFn, r.log)
	if err != nil {
		return nil, err
	}
	r.namespaces[name] = ns
	return ns, nil
}

// Names returns the namespace names created so far, for IsAlive/Clear
// fan-out.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.namespaces))
	for name := range r.namespaces {
		names = append(names, name)
	}
	return names
}

// Close releases every namespace's session and marks the Registry closed. It
// replaces the original's atexit-registered shutdown hook with a single
// scoped owner: cmd/kronosd defers this on the normal shutdown path, and it
// never relies on process-exit machinery.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	for _, ns := range r.namespaces {
		ns.sess.Close()
	}
	r.closed = true
	return nil
}
