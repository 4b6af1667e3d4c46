package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultDataDir(t *testing.T) {
	home, _ := os.UserHomeDir()

	tests := []struct {
		name string
		goos string
		env  map[string]string
		want string
	}{
		{
			name: "macOS",
			goos: "darwin",
			want: filepath.Join(home, "Library", "Application Support", "quest"),
		},
		{
			name: "linux without XDG_DATA_HOME",
			goos: "linux",
			env:  map[string]string{"XDG_DATA_HOME": ""},
			want: filepath.Join(home, ".local", "share", "quest"),
		},
		{
			name: "linux with XDG_DATA_HOME",
			goos: "linux",
			env:  map[string]string{"XDG_DATA_HOME": "/custom/data"},
			want: filepath.Join("/custom/data", "quest"),
		},
		{
			name: "windows LOCALAPPDATA",
			goos: "windows",
			env:  map[string]string{"LOCALAPPDATA": `C:\Users\test\AppData\Local`},
			want: filepath.Join(`C:\Users\test\AppData\Local`, "quest"),
		},
		{
			name: "windows APPDATA fallback",
			goos: "windows",
			env: map[string]string{
				"LOCALAPPDATA": "",
				"APPDATA":      `C:\Users\test\AppData\Roaming`,
			},
			want: filepath.Join(`C:\Users\test\AppData\Roaming`, "quest"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			assert.Equal(t, tt.want, defaultDataDirForOS(tt.goos))
		})
	}
}

func TestResolveDataDir(t *testing.T) {
	t.Setenv(DataDirEnv, "/from/env")
	assert.Equal(t, "/from/flag", ResolveDataDir("/from/flag"))
	assert.Equal(t, "/from/env", ResolveDataDir(""))

	t.Setenv(DataDirEnv, "")
	assert.Equal(t, DefaultDataDir(), ResolveDataDir(""))
}
