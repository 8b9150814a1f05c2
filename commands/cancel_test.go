package commands

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const canceledUUID = "4f2c8a1e-9b3d-4c6e-8a7f-1d2e3f4a5b6c"

func executeRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	})

	err := rootCmd.Execute()
	return out.String(), err
}

func TestSimulationID(t *testing.T) {
	tests := []struct {
		name    string
		arg     string
		want    string
		wantErr bool
	}{
		{name: "uuid", arg: canceledUUID, want: canceledUUID},
		{name: "uuid is normalized", arg: " 4F2C8A1E-9B3D-4C6E-8A7F-1D2E3F4A5B6C ", want: canceledUUID},
		{name: "sequence id", arg: "CCCCC", want: "CCCCC"},
		{name: "numeric id", arg: "000000000042", want: "000000000042"},
		{name: "empty", arg: "", wantErr: true},
		{name: "blank", arg: "   ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := simulationID(tt.arg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCancel_EmptyID(t *testing.T) {
	_, err := executeRoot(t, "cancel", " ")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "must not be empty")
}

func TestCancel(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		status  int
		wantErr string
	}{
		{name: "canceled", id: canceledUUID, status: http.StatusOK},
		{name: "sequence id", id: "CCCCC", status: http.StatusOK},
		{name: "unknown id", id: canceledUUID, status: http.StatusNotFound, wantErr: "not found"},
		{name: "server error", id: canceledUUID, status: http.StatusInternalServerError, wantErr: "failed to cancel"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotMethod, gotPath, gotStatus string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotMethod = r.Method
				gotPath = r.URL.Path
				var body map[string]string
				data, _ := io.ReadAll(r.Body)
				_ = sonic.Unmarshal(data, &body)
				gotStatus = body["status"]
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"message":"done"}`))
			}))
			defer srv.Close()

			out, err := executeRoot(t, "cancel", tt.id, "--api-url", srv.URL, "--dir=")

			assert.Equal(t, http.MethodPut, gotMethod)
			assert.Equal(t, "/api/simulations/"+tt.id, gotPath)
			assert.Equal(t, "canceled", gotStatus)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Contains(t, out, "Canceled simulation "+tt.id)
		})
	}
}
