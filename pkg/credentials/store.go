package credentials

import (
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
)

// Store persists Credentials for a device, keyed by the device's peer ID,
// across process restarts so pairing only has to happen once.
type Store interface {
	Load(remotePeerID string) (Credentials, error)
	Save(remotePeerID string, creds Credentials) error
}

// fileRecord is the on-disk JSON shape. Credentials itself stays pure
// wire-format logic; this is FileStore's own encoding, independent of
// Serialize/Parse.
type fileRecord struct {
	PairingID       string `json:"pairingId"`
	LocalPrivateKey string `json:"localPrivateKey"`
	RemotePeerID    string `json:"remotePeerId"`
	RemotePublicKey string `json:"remotePublicKey"`
}

// FileStore is a Store backed by one JSON file per peer ID in a directory,
// written with 0600 permissions since the file holds the local private key.
type FileStore struct {
	dir string
}

// NewFileStore returns a FileStore rooted at dir. The directory is created
// with 0700 permissions on first Save if it does not already exist.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

func (f *FileStore) path(remotePeerID string) string {
	return filepath.Join(f.dir, remotePeerID+".json")
}

// Load reads and decodes the credentials stored for remotePeerID.
func (f *FileStore) Load(remotePeerID string) (Credentials, error) {
	data, err := os.ReadFile(f.path(remotePeerID))
	if err != nil {
		return Credentials{}, err
	}

	var rec fileRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return Credentials{}, ErrMalformedCredentials
	}

	local, err := decodeHexKey(rec.LocalPrivateKey)
	if err != nil {
		return Credentials{}, err
	}
	remote, err := decodeHexKey(rec.RemotePublicKey)
	if err != nil {
		return Credentials{}, err
	}

	return Credentials{
		PairingID:       rec.PairingID,
		LocalPrivateKey: local,
		RemotePeerID:    rec.RemotePeerID,
		RemotePublicKey: remote,
	}, nil
}

// Save writes creds for remotePeerID, creating the store directory if
// needed and replacing any previously saved record for that peer.
func (f *FileStore) Save(remotePeerID string, creds Credentials) error {
	if err := os.MkdirAll(f.dir, 0o700); err != nil {
		return err
	}

	rec := fileRecord{
		PairingID:       creds.PairingID,
		LocalPrivateKey: hex.EncodeToString(creds.LocalPrivateKey[:]),
		RemotePeerID:    creds.RemotePeerID,
		RemotePublicKey: hex.EncodeToString(creds.RemotePublicKey[:]),
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return err
	}

	tmp := f.path(remotePeerID) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, f.path(remotePeerID))
}
