package config

import (
	"testing"

	"github.com/openkcm/common-sdk/pkg/commoncfg"
	"github.com/stretchr/testify/assert"
)

func TestMakeValKeyOptions(t *testing.T) {
	tests := []struct {
		name         string
		conf         ValKey
		wantAddress  []string
		wantUser     string
		wantPassword string
		assertErr    assert.ErrorAssertionFunc
	}{
		{
			name: "Make client options",
			conf: ValKey{
				Host:     commoncfg.SourceRef{Source: "embedded", Value: "localhost:6379"},
				User:     commoncfg.SourceRef{Source: "embedded", Value: "my_user"},
				Password: commoncfg.SourceRef{Source: "embedded", Value: "my_password"},
			},
			wantAddress:  []string{"localhost:6379"},
			wantUser:     "my_user",
			wantPassword: "my_password",
			assertErr:    assert.NoError,
		},
		{
			name: "Error - invalid host source",
			conf: ValKey{
				Host:     commoncfg.SourceRef{Source: "invalid-source", Value: "localhost:6379"},
				User:     commoncfg.SourceRef{Source: "embedded", Value: "my_user"},
				Password: commoncfg.SourceRef{Source: "embedded", Value: "my_password"},
			},
			assertErr: assert.Error,
		},
		{
			name: "Error - empty host",
			conf: ValKey{
				Host:     commoncfg.SourceRef{Source: "embedded", Value: ""},
				User:     commoncfg.SourceRef{Source: "embedded", Value: "my_user"},
				Password: commoncfg.SourceRef{Source: "embedded", Value: "my_password"},
			},
			assertErr: assert.Error,
		},
		{
			name: "Error - invalid user source",
			conf: ValKey{
				Host:     commoncfg.SourceRef{Source: "embedded", Value: "localhost:6379"},
				User:     commoncfg.SourceRef{Source: "invalid-source", Value: "my_user"},
				Password: commoncfg.SourceRef{Source: "embedded", Value: "my_password"},
			},
			assertErr: assert.Error,
		},
		{
			name: "Error - invalid password source",
			conf: ValKey{
				Host:     commoncfg.SourceRef{Source: "embedded", Value: "localhost:6379"},
				User:     commoncfg.SourceRef{Source: "embedded", Value: "my_user"},
				Password: commoncfg.SourceRef{Source: "invalid-source", Value: "my_password"},
			},
			assertErr: assert.Error,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MakeValKeyOptions(tt.conf)
			if !tt.assertErr(t, err) || err != nil {
				return
			}

			assert.Equal(t, tt.wantAddress, got.InitAddress)
			assert.Equal(t, tt.wantUser, got.Username)
			assert.Equal(t, tt.wantPassword, got.Password)
		})
	}
}
