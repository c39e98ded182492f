package service

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/ekisa-team/vani/internal/backend"
	"github.com/ekisa-team/vani/internal/config"
	"github.com/ekisa-team/vani/internal/pipeline"
	"github.com/ekisa-team/vani/internal/upstream"
	"github.com/stretchr/testify/mock"
)

// fakeBackend records the last request and answers with a fixed reply.
type fakeBackend struct {
	provider backend.BackendProvider
	reply    string
	err      error

	calls int
	req   *backend.Request
	input string
	file  string
}

func (f *fakeBackend) Provider() backend.BackendProvider { return f.provider }

func (f *fakeBackend) Close() error { return nil }

func (f *fakeBackend) Infer(_ context.Context, req *backend.Request) (*backend.Response, error) {
	f.calls++
	f.req = req
	if file, ok := req.Input.(*os.File); ok {
		f.file = file.Name()
	}
	data, _ := io.ReadAll(req.Input)
	f.input = string(data)
	if f.err != nil {
		return nil, f.err
	}
	return &backend.Response{Output: strings.NewReader(f.reply)}, nil
}

// spawningBackend reports that it starts its own server with ModelPath.
type spawningBackend struct {
	*fakeBackend
}

func (spawningBackend) ServesModelPath() bool { return true }

func registryWith(t *testing.T, backends ...backend.Backend) *backend.Registry {
	t.Helper()
	r := backend.NewRegistry()
	for _, b := range backends {
		if err := r.Register(b); err != nil {
			t.Fatal(err)
		}
	}
	return r
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Server.TempDir = t.TempDir()
	cfg.Pipeline.BaseURL = "http://pipeline.test"
	cfg.Pipeline.Authorization = "secret"
	return cfg
}

func guard(name string) *upstream.Guard {
	return upstream.New(name, config.UpstreamPolicy{})
}

type MockTranslator struct {
	mock.Mock
}

func (m *MockTranslator) Translate(ctx context.Context, t pipeline.Translation) (string, error) {
	args := m.Called(ctx, t)
	return args.String(0), args.Error(1)
}

type MockSynthesizer struct {
	mock.Mock
}

func (m *MockSynthesizer) Synthesize(ctx context.Context, s pipeline.Synthesis) (string, error) {
	args := m.Called(ctx, s)
	return args.String(0), args.Error(1)
}

var errBoom = errors.New("boom")
