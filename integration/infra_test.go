//go:build integration

package integration_test

import (
	"io/fs"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-yaml"
	"github.com/openkcm/common-sdk/pkg/commoncfg"
	"github.com/stretchr/testify/require"

	"github.com/openkcm/catalog-client/internal/apitest"
	"github.com/openkcm/catalog-client/internal/config"
	"github.com/openkcm/catalog-client/internal/dbtest/valkeytest"
)

type infraStat struct {
	ConfigFilePath string
	Procdir        string
	Executable     string
	Cfg            config.Config
}

func initInfra(t *testing.T, name string) (istat infraStat) {
	t.Helper()

	// Since the config is read from the file $PWD/config.yaml,
	// we're running a process in a subdirectory so that we aren't interferring with the other tests.
	wd, err := os.Getwd()
	require.NoError(t, err, "failed to get wd")
	istat.Executable = filepath.Join(wd, binary)
	istat.Procdir = filepath.Join(wd, name+"-test")
	istat.ConfigFilePath = filepath.Join(istat.Procdir, "config.yaml")

	// Prepare a directory for the test
	err = os.MkdirAll(istat.Procdir, fs.ModePerm)
	require.NoError(t, err, "failed to create a dir for the process")

	err = os.WriteFile(istat.ConfigFilePath, []byte(validConfig), fs.ModePerm)
	require.NoError(t, err, "failed to write config file")

	err = commoncfg.LoadConfig(&istat.Cfg, nil, istat.Procdir)
	require.NoError(t, err, "failed to load config")

	// Let OS choose a free port
	l, err := new(net.ListenConfig).Listen(t.Context(), "tcp", "127.0.0.1:0")
	require.NoError(t, err, "failed to find a free port")
	istat.Cfg.HTTP.Address = l.Addr().String()
	require.NoError(t, l.Close())

	return istat
}

// PrepareAPI points the config at a fake catalog API. The base url keeps
// the "/api" prefix the client strips.
func (istat *infraStat) PrepareAPI(t *testing.T) *apitest.Server {
	t.Helper()

	api := apitest.Start(t)
	istat.Cfg.API.BaseURL = api.URL + "/api"
	istat.Cfg.API.StripPrefix = "/api"

	return api
}

func (istat *infraStat) PrepareValKey(t *testing.T) {
	t.Helper()

	_, vkPort := valkeytest.Start(t)

	istat.Cfg.Storage.Type = config.StorageTypeValKey
	istat.Cfg.ValKey.Host = commoncfg.SourceRef{Source: "embedded", Value: net.JoinHostPort("localhost", vkPort.Port())}
	istat.Cfg.ValKey.User = commoncfg.SourceRef{Source: "embedded", Value: ""}
	istat.Cfg.ValKey.Password = commoncfg.SourceRef{Source: "embedded", Value: ""}
}

// PrepareConfig writes a config file for running the test into the ConfigFilePath.
func (istat *infraStat) PrepareConfig(t *testing.T) {
	t.Helper()

	data, err := yaml.Marshal(istat.Cfg)
	require.NoError(t, err, "failed to marshal config")

	err = os.WriteFile(istat.ConfigFilePath, data, fs.ModePerm)
	require.NoError(t, err, "failed to write config")
}

// Run executes the binary in the process directory and returns its
// combined output.
func (istat *infraStat) Run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := exec.CommandContext(t.Context(), istat.Executable, args...)
	cmd.Dir = istat.Procdir
	out, err := cmd.CombinedOutput()

	return strings.TrimSpace(string(out)), err
}

func (istat *infraStat) Close() {
	os.Remove(istat.ConfigFilePath)
	os.RemoveAll(istat.Procdir)
}
