//go:build integration

package integration_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openkcm/catalog-client/internal/apitest"
)

func TestCLI(t *testing.T) {
	tests := []struct {
		name    string
		prepare func(t *testing.T, istat *infraStat)
	}{
		{
			name:    "file storage",
			prepare: func(*testing.T, *infraStat) {},
		},
		{
			name: "valkey storage",
			prepare: func(t *testing.T, istat *infraStat) {
				istat.PrepareValKey(t)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			istat := initInfra(t, "cli")
			defer istat.Close()

			api := istat.PrepareAPI(t)
			tt.prepare(t, &istat)
			istat.PrepareConfig(t)

			run := func(t *testing.T, args ...string) string {
				t.Helper()
				out, err := istat.Run(t, args...)
				require.NoError(t, err, "output: %s", out)
				return out
			}

			out, err := istat.Run(t, "whoami")
			require.Error(t, err)
			assert.Contains(t, out, "not authenticated")

			out = run(t, "login", "-u", apitest.Username, "-p", apitest.Password, "--remember")
			assert.Contains(t, out, "Signed in as Emily Johnson (emilys)")

			out = run(t, "whoami")
			assert.Contains(t, out, "Emily Johnson (emilys)")

			out = run(t, "products", "list", "--sort", "price", "--dir", "desc")
			assert.Contains(t, out, "Showing 1-5 of 12, page 1 of 3, sorted by price desc")

			api.ExpireAccess()
			out = run(t, "products", "list", "--page", "2")
			assert.Contains(t, out, "Showing 6-10 of 12, page 2 of 3, sorted by price desc")

			out = run(t, "products", "add", "--title", "Aardvark Lamp", "--price", "19,90", "--brand", "Acme", "--sku", "LMP-1")
			assert.Contains(t, out, `Added "Aardvark Lamp" (LMP-1)`)

			out = run(t, "products", "list", "-q", "lamp")
			assert.Contains(t, out, "Aardvark Lamp")

			out, err = istat.Run(t, "products", "add", "--title", "Lamp", "--price", "free")
			require.Error(t, err)
			assert.Contains(t, out, "invalid product")

			out = run(t, "logout")
			assert.Contains(t, out, "Signed out")

			_, err = istat.Run(t, "whoami")
			require.Error(t, err)

			_, _, _, logouts, _ := api.Counts()
			assert.Equal(t, 1, logouts)
		})
	}
}

func TestCLI_LoginErrors(t *testing.T) {
	istat := initInfra(t, "cli-errors")
	defer istat.Close()

	api := istat.PrepareAPI(t)
	istat.PrepareConfig(t)

	out, err := istat.Run(t, "login", "-u", apitest.Username)
	require.Error(t, err)
	assert.Contains(t, out, "enter a password")

	out, err = istat.Run(t, "login", "-u", apitest.Username, "-p", "wrong")
	require.Error(t, err)
	assert.Contains(t, out, "Invalid credentials")

	logins, _, _, _, _ := api.Counts()
	assert.Equal(t, 1, logins)
}

func TestCLI_Version(t *testing.T) {
	istat := initInfra(t, "cli-version")
	defer istat.Close()

	istat.PrepareConfig(t)

	out, err := istat.Run(t, "version")
	require.NoError(t, err, "output: %s", out)
	assert.Contains(t, out, "v0.0.0-integration")
}
