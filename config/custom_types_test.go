/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package config

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestTimeDurationUnmarshal(t *testing.T) {
	type holder struct {
		Timeout TimeDuration `json:"timeout" yaml:"timeout"`
	}

	tests := []struct {
		name       string
		jsonData   string
		yamlData   string
		want       time.Duration
		wantErrMsg string
	}{
		{
			name:     "human-readable string",
			jsonData: `{"timeout": "1h30m"}`,
			yamlData: "timeout: 1h30m",
			want:     time.Hour + 30*time.Minute,
		},
		{
			name:     "integer nanoseconds",
			jsonData: `{"timeout": 1000000000}`,
			yamlData: "timeout: 1000000000",
			want:     time.Second,
		},
		{
			name:     "zero",
			jsonData: `{"timeout": 0}`,
			yamlData: "timeout: 0",
			want:     0,
		},
		{
			name:       "negative integer",
			jsonData:   `{"timeout": -1}`,
			yamlData:   "timeout: -1",
			wantErrMsg: "negative value is not allowed: -1",
		},
		{
			name:       "garbage",
			jsonData:   `{"timeout": "1 parsec"}`,
			yamlData:   "timeout: 1 parsec",
			wantErrMsg: "invalid time duration format",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var fromJSON holder
			err := json.Unmarshal([]byte(tt.jsonData), &fromJSON)
			if tt.wantErrMsg != "" {
				require.ErrorContains(t, err, tt.wantErrMsg)
			} else {
				require.NoError(t, err)
				require.Equal(t, TimeDuration(tt.want), fromJSON.Timeout)
			}

			var fromYAML holder
			err = yaml.Unmarshal([]byte(tt.yamlData), &fromYAML)
			if tt.wantErrMsg != "" {
				require.ErrorContains(t, err, tt.wantErrMsg)
			} else {
				require.NoError(t, err)
				require.Equal(t, TimeDuration(tt.want), fromYAML.Timeout)
			}
		})
	}
}

func TestTimeDurationMarshal(t *testing.T) {
	d := TimeDuration(90 * time.Second)

	jsonData, err := json.Marshal(d)
	require.NoError(t, err)
	require.Equal(t, `"1m30s"`, string(jsonData))

	yamlData, err := yaml.Marshal(d)
	require.NoError(t, err)
	require.Equal(t, "1m30s\n", string(yamlData))

	require.Equal(t, "1m30s", d.String())

	text, err := d.MarshalText()
	require.NoError(t, err)
	require.Equal(t, "1m30s", string(text))
}
