package storage

import (
	"os"

	"github.com/linesmerrill/chat-tts-api/models"
)

// BanFile is the on-disk mirror of the ban ledger.
type BanFile struct {
	path string
}

// NewBanFile returns a ban file at the given path.
func NewBanFile(path string) *BanFile {
	return &BanFile{path: path}
}

// Load reads the ledger. A missing file loads as an empty ledger; any
// other read failure is an error the caller treats as fatal at startup.
func (f *BanFile) Load() (models.BanList, error) {
	var list models.BanList
	err := ReadJSON(f.path, &list)
	if os.IsNotExist(err) {
		return models.NewBanList(), nil
	}
	if err != nil {
		return models.BanList{}, err
	}
	if list.Users == nil {
		list.Users = map[string]models.BanEntry{}
	}
	return list, nil
}

// Save persists the ledger atomically.
func (f *BanFile) Save(list models.BanList) error {
	return WriteJSONAtomic(f.path, list)
}
