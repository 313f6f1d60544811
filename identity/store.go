package identity

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/meetingmuse/musechat/schema"
	"pkt.systems/pslog"
)

const clientFileName = "client.json"

// clientRecord is the persisted shape of the durable client identifier.
type clientRecord struct {
	ClientID schema.ClientID `json:"client_id"`
}

// Store persists the durable client identifier in the state directory. The
// identifier is generated on first use and survives logins and logouts.
type Store struct {
	dir string
	log pslog.Logger
}

// NewStore constructs a store rooted at the given state directory.
func NewStore(dir string, logger pslog.Logger) (*Store, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("state directory is required")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}
	if logger != nil {
		logger = logger.With("state_dir", dir)
	}
	return &Store{dir: dir, log: logger}, nil
}

// ClientID returns the persisted client identifier, generating and saving a
// new one when none exists yet.
func (s *Store) ClientID() (schema.ClientID, error) {
	path := filepath.Join(s.dir, clientFileName)
	data, err := os.ReadFile(path)
	if err == nil {
		var record clientRecord
		if jsonErr := json.Unmarshal(data, &record); jsonErr == nil && record.ClientID != "" {
			return record.ClientID, nil
		}
		if s.log != nil {
			s.log.Warn("client id file unreadable, regenerating", "path", path)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", err
	}

	clientID := NewClientID()
	if err := s.save(clientRecord{ClientID: clientID}); err != nil {
		return "", err
	}
	if s.log != nil {
		s.log.Info("client id generated", "client", clientID)
	}
	return clientID, nil
}

func (s *Store) save(record clientRecord) error {
	path := filepath.Join(s.dir, clientFileName)
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(s.dir, "client-*.json")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o600); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// NewClientID generates a fresh client identifier in the same
// client-<millis>-<random> shape the web front end uses.
func NewClientID() schema.ClientID {
	var buf [6]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return schema.ClientID(fmt.Sprintf("client-%d", time.Now().UnixMilli()))
	}
	return schema.ClientID(fmt.Sprintf("client-%d-%s", time.Now().UnixMilli(), hex.EncodeToString(buf[:])))
}
