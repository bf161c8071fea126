package library

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesainslie/boost/pkg/boost/gateway"
	"github.com/jamesainslie/boost/pkg/boost/profile"
)

func writeFile(t *testing.T, path string, size int) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, make([]byte, size), 0o644))
}

func gameTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "Apex Legends", "r5apex.exe"), 4096)
	writeFile(t, filepath.Join(root, "Apex Legends", "EasyAntiCheat_launcher.exe"), 512)
	writeFile(t, filepath.Join(root, "Apex Legends", "unins000.exe"), 8192)
	writeFile(t, filepath.Join(root, "Elden Ring", "Game", "eldenring.exe"), 2048)
	writeFile(t, filepath.Join(root, "Elden Ring", "Game", "readme.txt"), 10)
	writeFile(t, filepath.Join(root, "Deep", "a", "b", "c", "d", "buried.exe"), 100)
	return root
}

func TestScanGroupsByDirectory(t *testing.T) {
	root := gameTree(t)

	res, err := Scan(context.Background(), Options{
		Roots:   []string{root},
		Exclude: []string{"*unins*"},
	})
	require.NoError(t, err)

	require.Len(t, res.Candidates, 2)
	apex := res.Candidates[0]
	assert.Equal(t, "Apex Legends", apex.Name)
	assert.Equal(t, "r5apex.exe", apex.Main, "largest non-excluded exe is the main process")
	assert.Equal(t, []string{"easyanticheat_launcher.exe"}, apex.Others)
	assert.Equal(t, int64(4096), apex.Size)

	elden := res.Candidates[1]
	assert.Equal(t, "Game", elden.Name)
	assert.Equal(t, "eldenring.exe", elden.Main)
	assert.Positive(t, res.DirsScanned)
}

func TestScanDepth(t *testing.T) {
	root := gameTree(t)

	res, err := Scan(context.Background(), Options{Roots: []string{root}, Depth: 10})
	require.NoError(t, err)
	var mains []string
	for _, c := range res.Candidates {
		mains = append(mains, c.Main)
	}
	assert.Contains(t, mains, "buried.exe")

	res, err = Scan(context.Background(), Options{Roots: []string{root}, Depth: 2})
	require.NoError(t, err)
	mains = nil
	for _, c := range res.Candidates {
		mains = append(mains, c.Main)
	}
	assert.NotContains(t, mains, "buried.exe")
	assert.NotContains(t, mains, "eldenring.exe", "Elden Ring/Game is two levels down")
	assert.Contains(t, mains, "unins000.exe")
}

func TestScanErrors(t *testing.T) {
	_, err := Scan(context.Background(), Options{})
	assert.Error(t, err)

	_, err = Scan(context.Background(), Options{Roots: []string{filepath.Join(t.TempDir(), "missing")}})
	assert.Error(t, err)

	file := filepath.Join(t.TempDir(), "f.exe")
	writeFile(t, file, 1)
	_, err = Scan(context.Background(), Options{Roots: []string{file}})
	assert.Error(t, err)

	_, err = Scan(context.Background(), Options{Roots: []string{t.TempDir()}, Exclude: []string{"["}})
	assert.Error(t, err)
}

func TestScanCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Scan(ctx, Options{Roots: []string{gameTree(t)}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPropose(t *testing.T) {
	cands := []Candidate{
		{Name: "Apex Legends", Main: "r5apex.exe"},
		{Name: "Elden Ring", Main: "eldenring.exe"},
	}
	got := Propose(cands, profile.Defaults())

	require.Len(t, got, 1)
	assert.Equal(t, "Elden Ring", got[0].Name)
	assert.Equal(t, profile.Process{Name: "eldenring.exe", Priority: gateway.High}, got[0].MainProcess)
	assert.NoError(t, got[0].Validate())
}

func TestWorkers(t *testing.T) {
	tests := []struct {
		cpus, override, want int
	}{
		{1, 0, minWorkers},
		{8, 0, 8},
		{64, 0, maxWorkers},
		{8, 3, 3},
		{8, 100, maxWorkers},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Workers(tt.cpus, tt.override), "cpus=%d override=%d", tt.cpus, tt.override)
	}
}
