// Package document reads and writes the portable JSON documents: flat
// arrays of tweaks and of profiles, and plain-text activity exports.
package document

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/jamesainslie/boost/pkg/boost/activity"
	"github.com/jamesainslie/boost/pkg/boost/profile"
	"github.com/jamesainslie/boost/pkg/boost/tweak"
)

// File names used inside a backup directory.
const (
	TweaksFile   = "tweaks.json"
	ProfilesFile = "profiles.json"
)

// ErrNotExist is returned when a document is missing.
var ErrNotExist = errors.New("document does not exist")

// Docs reads and writes documents on a filesystem.
type Docs struct {
	fs afero.Fs
}

// New returns Docs on fs, or on the OS filesystem when fs is nil.
func New(fs afero.Fs) *Docs {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Docs{fs: fs}
}

// ExportTweaks writes the full tweak records.
func (d *Docs) ExportTweaks(path string, ts []tweak.Tweak) error {
	return d.writeJSON(path, ts)
}

// ImportTweaks reads a tweak document. Only id and enabled are taken;
// unknown fields and unknown categories are ignored.
func (d *Docs) ImportTweaks(path string) ([]tweak.State, error) {
	data, err := d.read(path)
	if err != nil {
		return nil, err
	}
	return tweak.DecodeStates(data)
}

// ExportProfiles writes the profile list.
func (d *Docs) ExportProfiles(path string, ps []profile.Profile) error {
	if ps == nil {
		ps = []profile.Profile{}
	}
	return d.writeJSON(path, ps)
}

// ImportProfiles reads a profile document. Validation is left to the
// profile store.
func (d *Docs) ImportProfiles(path string) ([]profile.Profile, error) {
	data, err := d.read(path)
	if err != nil {
		return nil, err
	}
	var ps []profile.Profile
	if err := json.Unmarshal(data, &ps); err != nil {
		return nil, fmt.Errorf("decoding profiles from %s: %w", path, err)
	}
	return ps, nil
}

// ExportLog writes one formatted line per entry.
func (d *Docs) ExportLog(path string, entries []activity.Entry) error {
	var buf bytes.Buffer
	for _, e := range entries {
		buf.WriteString(e.Formatted())
		buf.WriteByte('\n')
	}
	return d.write(path, buf.Bytes())
}

// Backup is the pair of documents kept in a backup directory.
type Backup struct {
	Tweaks   []tweak.State
	Profiles []profile.Profile
}

// ExportBackup writes both documents into dir, creating it.
func (d *Docs) ExportBackup(dir string, ts []tweak.Tweak, ps []profile.Profile) error {
	if err := d.fs.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	// Paths below are relative to dir.
	sub := &Docs{fs: afero.NewBasePathFs(d.fs, dir)}
	if err := sub.ExportTweaks(TweaksFile, ts); err != nil {
		return err
	}
	return sub.ExportProfiles(ProfilesFile, ps)
}

// ImportBackup reads whichever documents exist in dir. A missing document
// leaves its field nil.
func (d *Docs) ImportBackup(dir string) (Backup, error) {
	sub := &Docs{fs: afero.NewBasePathFs(d.fs, dir)}
	var b Backup
	var err error

	b.Tweaks, err = sub.ImportTweaks(TweaksFile)
	if err != nil && !errors.Is(err, ErrNotExist) {
		return Backup{}, err
	}
	b.Profiles, err = sub.ImportProfiles(ProfilesFile)
	if err != nil && !errors.Is(err, ErrNotExist) {
		return Backup{}, err
	}
	if b.Tweaks == nil && b.Profiles == nil {
		return Backup{}, fmt.Errorf("%w: no %s or %s in %s", ErrNotExist, TweaksFile, ProfilesFile, dir)
	}
	return b, nil
}

func (d *Docs) read(path string) ([]byte, error) {
	data, err := afero.ReadFile(d.fs, path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotExist, path)
	}
	return data, err
}

func (d *Docs) writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return d.write(path, append(data, '\n'))
}

// write replaces path through a temp file and rename.
func (d *Docs) write(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := d.fs.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := afero.TempFile(d.fs, dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	name := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		_ = d.fs.Remove(name)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = d.fs.Remove(name)
		return err
	}
	if err := d.fs.Rename(name, path); err != nil {
		_ = d.fs.Remove(name)
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
