package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/AlecAivazis/survey/v2"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/honhon-app/honhon-cli/internal/api"
	"github.com/honhon-app/honhon-cli/internal/auth"
)

// TestCommandExecution helps test cobra command execution
type TestCommandExecution struct {
	Command      *cobra.Command
	Args         []string
	ExpectError  bool
	ExpectOutput []string
	Validate     func(t *testing.T, output string, err error)
}

// ExecuteCommandTest runs a command test and checks its output
func ExecuteCommandTest(t *testing.T, test TestCommandExecution) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	test.Command.SetOut(&stdout)
	test.Command.SetErr(&stderr)
	test.Command.SetArgs(test.Args)

	err := test.Command.Execute()

	if test.ExpectError {
		assert.Error(t, err)
	} else {
		assert.NoError(t, err)
	}

	output := stdout.String() + stderr.String()
	for _, expected := range test.ExpectOutput {
		assert.Contains(t, output, expected)
	}

	if test.Validate != nil {
		test.Validate(t, output, err)
	}
}

// captureOutput redirects the CLI output helpers into buffers for the
// duration of the test
func captureOutput(t *testing.T) (stdout, stderr *bytes.Buffer) {
	t.Helper()

	stdout, stderr = &bytes.Buffer{}, &bytes.Buffer{}
	oldOut, oldErr, oldNoColor := colorOutput, errorOutput, color.NoColor
	colorOutput, errorOutput = stdout, stderr
	color.NoColor = true

	t.Cleanup(func() {
		colorOutput, errorOutput = oldOut, oldErr
		color.NoColor = oldNoColor
	})
	return stdout, stderr
}

// askedPrompt records one prompt shown to the user
type askedPrompt struct {
	Message string
	Masked  bool
}

// scriptedPrompts answers survey prompts from a script keyed by prompt
// message. Each message has a queue of answers consumed in order.
type scriptedPrompts struct {
	mu      sync.Mutex
	answers map[string][]interface{}
	asked   []askedPrompt
}

// withPrompts installs a scripted askOne for the test
func withPrompts(t *testing.T, answers map[string][]interface{}) *scriptedPrompts {
	t.Helper()

	sp := &scriptedPrompts{answers: answers}
	old := askOne
	askOne = sp.ask
	t.Cleanup(func() { askOne = old })
	return sp
}

func (sp *scriptedPrompts) ask(p survey.Prompt, response interface{}, opts ...survey.AskOpt) error {
	sp.mu.Lock()
	defer sp.mu.Unlock()

	var asked askedPrompt
	switch v := p.(type) {
	case *survey.Input:
		asked = askedPrompt{Message: v.Message}
	case *survey.Password:
		asked = askedPrompt{Message: v.Message, Masked: true}
	case *survey.Confirm:
		asked = askedPrompt{Message: v.Message}
	default:
		return fmt.Errorf("unexpected prompt type %T", p)
	}
	sp.asked = append(sp.asked, asked)

	queue := sp.answers[asked.Message]
	if len(queue) == 0 {
		return fmt.Errorf("no scripted answer for %q", asked.Message)
	}
	answer := queue[0]
	sp.answers[asked.Message] = queue[1:]

	switch v := response.(type) {
	case *string:
		*v = answer.(string)
	case *bool:
		*v = answer.(bool)
	default:
		return fmt.Errorf("unexpected response type %T", response)
	}
	return nil
}

// Asked returns the prompts shown so far
func (sp *scriptedPrompts) Asked() []askedPrompt {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	return append([]askedPrompt(nil), sp.asked...)
}

// Messages returns the messages of the prompts shown so far
func (sp *scriptedPrompts) Messages() []string {
	asked := sp.Asked()
	out := make([]string, 0, len(asked))
	for _, a := range asked {
		out = append(out, a.Message)
	}
	return out
}

// fakeUserService is an in-memory registration and login backend
type fakeUserService struct {
	mu         sync.Mutex
	registered []map[string]string
	logins     int

	// registerStatus and registerBody override the next registration response
	registerStatus int
	registerBody   string

	token string
}

func newFakeUserService(t *testing.T) (*fakeUserService, *httptest.Server) {
	t.Helper()

	fs := &fakeUserService{token: "opaque-session-token"}
	mux := http.NewServeMux()
	mux.HandleFunc(api.RegisterPath, fs.handleRegister)
	mux.HandleFunc(api.LoginPath, fs.handleLogin)

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return fs, server
}

func (fs *fakeUserService) handleRegister(w http.ResponseWriter, r *http.Request) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	var body map[string]string
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	fs.registered = append(fs.registered, body)

	w.Header().Set("Content-Type", "application/json")
	if fs.registerStatus != 0 {
		w.WriteHeader(fs.registerStatus)
		_, _ = w.Write([]byte(fs.registerBody))
		fs.registerStatus, fs.registerBody = 0, ""
		return
	}
	w.WriteHeader(http.StatusCreated)
	_, _ = fmt.Fprintf(w, `{"message":"User registered","user":{"id":"u-1","username":%q,"email":%q}}`, body["username"], body["email"])
}

func (fs *fakeUserService) handleLogin(w http.ResponseWriter, r *http.Request) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.logins++

	var body map[string]string
	_ = json.NewDecoder(r.Body).Decode(&body)
	if body["password"] != "Secret123" {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Invalid email or password"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_, _ = fmt.Fprintf(w, `{"token":%q,"user":{"id":"u-1","username":"alice","email":%q}}`, fs.token, body["email"])
}

// Registered returns the registration bodies received so far
func (fs *fakeUserService) Registered() []map[string]string {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return append([]map[string]string(nil), fs.registered...)
}

// Logins returns the number of login calls received
func (fs *fakeUserService) Logins() int {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.logins
}

// testServices wires the account commands to a test server and an
// in-memory session store
func testServices(t *testing.T, baseURL string, session *auth.Session) (*services, *auth.MockStore) {
	t.Helper()
	store := auth.NewMockStore(session, nil)
	return &services{client: api.NewClient(baseURL), store: store}, store
}

// requireNoPromptLeft fails when scripted answers were never used
func requireNoPromptLeft(t *testing.T, sp *scriptedPrompts) {
	t.Helper()
	sp.mu.Lock()
	defer sp.mu.Unlock()
	for msg, queue := range sp.answers {
		require.Empty(t, queue, "unused answers for %q", msg)
	}
}
