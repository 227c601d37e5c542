package db

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gocql/gocql"
)

// Scylla wraps a CQL session. Statements qualify tables with Keyspace, so
// the session itself is not bound to one.
type Scylla struct {
	Session  *gocql.Session
	Keyspace string
}

// ConnectScylla dials hosts and creates keyspace when missing.
func ConnectScylla(hosts []string, keyspace string) (*Scylla, error) {
	if len(hosts) == 0 {
		return nil, errors.New("scylla hosts are required")
	}
	keyspace = strings.TrimSpace(keyspace)
	if keyspace == "" {
		return nil, errors.New("scylla keyspace is required")
	}

	cluster := gocql.NewCluster(hosts...)
	cluster.Consistency = gocql.Quorum
	cluster.Timeout = 5 * time.Second
	cluster.ConnectTimeout = 5 * time.Second

	session, err := cluster.CreateSession()
	if err != nil {
		return nil, fmt.Errorf("open scylla session: %w", err)
	}
	stmt := fmt.Sprintf(
		"CREATE KEYSPACE IF NOT EXISTS %s WITH replication = {'class': 'SimpleStrategy', 'replication_factor': 1}",
		keyspace,
	)
	if err := session.Query(stmt).Exec(); err != nil {
		session.Close()
		return nil, fmt.Errorf("create scylla keyspace: %w", err)
	}
	return &Scylla{Session: session, Keyspace: keyspace}, nil
}

func (s *Scylla) Close() error {
	if s == nil || s.Session == nil {
		return nil
	}
	s.Session.Close()
	return nil
}
