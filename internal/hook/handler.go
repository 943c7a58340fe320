// Package hook is the PreToolUse invocation boundary: it decodes the request
// envelope, classifies the command and turns the verdict into an exit status.
package hook

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/Dicklesworthstone/safehook/internal/core"
	"github.com/Dicklesworthstone/safehook/internal/eventlog"
	"github.com/charmbracelet/log"
)

// Exit statuses understood by Claude Code.
const (
	ExitProceed = 0
	ExitBlock   = 2
)

// BashTool is the tool name whose input is classified.
const BashTool = "Bash"

// Request is the JSON envelope received on stdin. Claude Code sends the
// command in tool_input; older hook runners used params.
type Request struct {
	SessionID     string `json:"session_id,omitempty"`
	HookEventName string `json:"hook_event_name,omitempty"`
	ToolName      string `json:"tool_name,omitempty"`
	ToolInput     struct {
		Command string `json:"command"`
	} `json:"tool_input"`
	Params struct {
		Command string `json:"command"`
	} `json:"params"`
}

// Command returns the shell command carried by the request.
func (r *Request) Command() string {
	if r.ToolInput.Command != "" {
		return r.ToolInput.Command
	}
	return r.Params.Command
}

// AppliesTo reports whether the request targets a tool this hook inspects.
// Requests without a tool name are treated as Bash.
func (r *Request) AppliesTo() bool {
	return r.ToolName == "" || r.ToolName == BashTool
}

// DecodeRequest reads one envelope from r.
func DecodeRequest(r io.Reader) (*Request, error) {
	var req Request
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty hook input")
		}
		return nil, fmt.Errorf("decoding hook input: %w", err)
	}
	return &req, nil
}

// Decision is what the hook does with one request.
type Decision struct {
	Command  string
	Verdict  core.Verdict
	ExitCode int
	// Skipped is set when the tool is not one the hook inspects.
	Skipped bool
	// Err is set when the request could not be evaluated.
	Err error
}

// Diagnostic returns the text written to stderr, or "" for a silent allow.
func (d Decision) Diagnostic() string {
	if d.Err != nil {
		return fmt.Sprintf("Error in safety check: %v", d.Err)
	}
	return d.Verdict.Message
}

// Options configures a Handler.
type Options struct {
	Classifier *core.Classifier
	Sink       eventlog.Sink
	Logger     *log.Logger
	// FailClosed blocks when the request cannot be evaluated. The default
	// lets the command through.
	FailClosed bool
	// LogAllowed records ALLOWED events as well as blocks and warnings.
	LogAllowed bool
}

// Handler evaluates hook requests.
type Handler struct {
	classifier *core.Classifier
	sink       eventlog.Sink
	logger     *log.Logger
	failClosed bool
	logAllowed bool
}

// NewHandler returns a handler. Nil fields fall back to the builtin rules,
// a discarding sink and the default logger.
func NewHandler(opts Options) *Handler {
	h := &Handler{
		classifier: opts.Classifier,
		sink:       opts.Sink,
		logger:     opts.Logger,
		failClosed: opts.FailClosed,
		logAllowed: opts.LogAllowed,
	}
	if h.classifier == nil {
		h.classifier = core.DefaultClassifier()
	}
	if h.sink == nil {
		h.sink = eventlog.Nop{}
	}
	if h.logger == nil {
		h.logger = log.Default()
	}
	h.logger = h.logger.WithPrefix("hook")
	return h
}

// Handle reads a request from r and decides on it.
func (h *Handler) Handle(r io.Reader) (d Decision) {
	defer func() {
		if p := recover(); p != nil {
			d = h.fail(d.Command, fmt.Errorf("panic: %v", p))
		}
	}()

	req, err := DecodeRequest(r)
	if err != nil {
		return h.fail("", err)
	}
	if !req.AppliesTo() {
		h.logger.Debug("skipping tool", "tool", req.ToolName)
		return Decision{Command: req.Command(), Verdict: core.Verdict{Outcome: core.OutcomeAllow}, Skipped: true}
	}
	return h.Evaluate(req.Command())
}

// Evaluate decides on a command directly.
func (h *Handler) Evaluate(command string) Decision {
	v := h.classifier.Classify(command)
	d := Decision{Command: command, Verdict: v, ExitCode: ExitProceed}

	switch v.Outcome {
	case core.OutcomeBlock:
		d.ExitCode = ExitBlock
		h.log(eventlog.EventBlocked, command, v.RuleName())
	case core.OutcomeWarn:
		h.log(eventlog.EventWarned, command, v.RuleName())
	default:
		if h.logAllowed {
			h.log(eventlog.EventAllowed, command, "")
		}
	}
	h.logger.Debug("classified", "outcome", v.Outcome, "rule", v.RuleName(), "exit", d.ExitCode)
	return d
}

func (h *Handler) fail(command string, err error) Decision {
	d := Decision{Command: command, Err: err, ExitCode: ExitProceed}
	if h.failClosed {
		d.ExitCode = ExitBlock
	}
	h.log(eventlog.EventError, command, err.Error())
	h.logger.Debug("safety check failed", "err", err, "fail_closed", h.failClosed)
	return d
}

// log hands one event to the sink. A sink that panics loses the event; the
// decision already made stands.
func (h *Handler) log(eventType, command, action string) {
	defer func() {
		if p := recover(); p != nil {
			h.logger.Debug("event sink panicked", "event", eventType, "panic", p)
		}
	}()
	h.sink.Log(eventType, command, action)
}
