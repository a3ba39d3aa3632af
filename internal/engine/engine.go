// Package engine drives the intake conversation: it owns the per-conversation
// state machine, consults the validators and the ledger, and triggers the
// outbound notifications.
package engine

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"intake-agent/internal/domain"
	"intake-agent/internal/ledger"
	"intake-agent/internal/messages"
	"intake-agent/internal/session"
	"intake-agent/internal/validate"
)

// Replier queues one ordered multi-part reply to a conversation.
type Replier interface {
	Send(ctx context.Context, conversationID string, msgs []string) error
}

// Downloader fetches an uploaded document to local storage and returns its
// path. The caller removes the file when done with it.
type Downloader interface {
	Download(ctx context.Context, fileID, fileName string) (string, error)
}

// Notifier is the notification dispatcher consumed by the engine.
type Notifier interface {
	ForwardResume(ctx context.Context, applicantEmail, filePath string) error
	ConfirmToApplicant(ctx context.Context, applicantEmail string)
	NotifyAdmin(ctx context.Context, applicantEmail, fileName string) string
}

// Engine is the conversation state machine.
type Engine struct {
	sessions session.Store
	intake   ledger.Store
	notifier Notifier
	files    Downloader
	replier  Replier
	msgs     messages.Catalog
}

func New(sessions session.Store, intake ledger.Store, notifier Notifier, files Downloader, replier Replier, msgs messages.Catalog) (*Engine, error) {
	if sessions == nil {
		return nil, errors.New("engine: session store must not be nil")
	}
	if intake == nil {
		return nil, errors.New("engine: ledger must not be nil")
	}
	if notifier == nil {
		return nil, errors.New("engine: notifier must not be nil")
	}
	if files == nil {
		return nil, errors.New("engine: downloader must not be nil")
	}
	if replier == nil {
		return nil, errors.New("engine: replier must not be nil")
	}
	return &Engine{
		sessions: sessions,
		intake:   intake,
		notifier: notifier,
		files:    files,
		replier:  replier,
		msgs:     msgs,
	}, nil
}

// HandleEvent processes one inbound chat event. Invalid input and duplicate
// submissions are handled by re-prompting and return nil; the returned error
// reports failures worth logging (transfer failures, store I/O).
func (e *Engine) HandleEvent(ctx context.Context, ev domain.Event) error {
	if ev.ConversationID == "" {
		return newError(ErrorInvalidInput, "missing_conversation_id", nil)
	}

	if ev.Kind == domain.EventStart {
		return e.handleStart(ctx, ev)
	}

	sess, err := e.sessions.Get(ctx, ev.ConversationID)
	if err != nil {
		return newError(ErrorInternal, "session_read_error", err)
	}
	if sess == nil {
		// No conversation in flight; nothing to do until /start.
		return nil
	}

	switch sess.State {
	case domain.StateAwaitingEmail:
		return e.handleEmailInput(ctx, sess, ev)
	case domain.StateAwaitingResume:
		return e.handleResumeUpload(ctx, sess, ev)
	default:
		return newError(ErrorInternal, "unknown_session_state", nil)
	}
}

// handleStart opens (or restarts) a conversation in the email-capture step.
func (e *Engine) handleStart(ctx context.Context, ev domain.Event) error {
	sess := &domain.Session{
		ConversationID: ev.ConversationID,
		State:          domain.StateAwaitingEmail,
	}
	if err := e.sessions.Put(ctx, sess); err != nil {
		return newError(ErrorInternal, "session_write_error", err)
	}
	return e.reply(ctx, ev.ConversationID, e.msgs.Welcome)
}

func (e *Engine) handleEmailInput(ctx context.Context, sess *domain.Session, ev domain.Event) error {
	if !validate.Email(ev.Text) {
		return e.reply(ctx, sess.ConversationID, []string{e.msgs.InvalidEmail})
	}
	email := ev.Text

	used, err := e.intake.IsEmailUsed(ctx, email)
	if err != nil {
		return newError(ErrorInternal, "ledger_read_error", err)
	}
	if used {
		return e.reply(ctx, sess.ConversationID, []string{e.msgs.EmailUsed})
	}

	if err := e.intake.RecordAttempt(ctx, email, domain.StatusInProgress); err != nil {
		return newError(ErrorInternal, "ledger_write_error", err)
	}

	sess.State = domain.StateAwaitingResume
	sess.Email = email
	if err := e.sessions.Put(ctx, sess); err != nil {
		return newError(ErrorInternal, "session_write_error", err)
	}
	return e.reply(ctx, sess.ConversationID, e.msgs.EmailPromptFor(email))
}

func (e *Engine) handleResumeUpload(ctx context.Context, sess *domain.Session, ev domain.Event) error {
	if ev.Kind != domain.EventFile || ev.File == nil {
		return e.reply(ctx, sess.ConversationID, []string{e.msgs.UploadResume})
	}
	file := *ev.File
	if !validate.File(file) {
		return e.reply(ctx, sess.ConversationID, []string{e.msgs.InvalidFile})
	}

	path, err := e.files.Download(ctx, file.FileID, file.FileName)
	if err != nil {
		return e.failUpload(ctx, sess, file.FileName, "resume_download", err)
	}

	forwardErr := e.notifier.ForwardResume(ctx, sess.Email, path)
	if removeErr := os.Remove(path); removeErr != nil {
		slog.Warn("could not remove staged resume", "path", path, "err", removeErr)
	}
	if forwardErr != nil {
		return e.failUpload(ctx, sess, file.FileName, "resume_forward", forwardErr)
	}

	e.notifier.ConfirmToApplicant(ctx, sess.Email)
	outcome := e.notifier.NotifyAdmin(ctx, sess.Email, file.FileName)

	if err := e.intake.UpdateOutcome(ctx, sess.Email, file.FileName, domain.StatusSuccess, ledger.Extra{NotifiedAdmins: outcome}); err != nil {
		return newError(ErrorInternal, "ledger_write_error", err)
	}
	if err := e.sessions.Delete(ctx, sess.ConversationID); err != nil {
		return newError(ErrorInternal, "session_delete_error", err)
	}
	return e.reply(ctx, sess.ConversationID, e.msgs.Success)
}

// failUpload records the terminal failure of an upload attempt, informs the
// user and discards the session. The applicant must restart the whole flow.
func (e *Engine) failUpload(ctx context.Context, sess *domain.Session, fileName, reason string, cause error) error {
	if err := e.intake.UpdateOutcome(ctx, sess.Email, fileName, domain.StatusError, ledger.Extra{Error: cause.Error()}); err != nil {
		slog.Error("could not record failed upload", "email", sess.Email, "err", err)
	}
	if err := e.sessions.Delete(ctx, sess.ConversationID); err != nil {
		slog.Error("could not discard session", "conversationId", sess.ConversationID, "err", err)
	}
	if err := e.reply(ctx, sess.ConversationID, []string{e.msgs.Error}); err != nil {
		slog.Error("could not send error reply", "conversationId", sess.ConversationID, "err", err)
	}
	return newError(ErrorTransferFailure, reason, cause)
}

func (e *Engine) reply(ctx context.Context, conversationID string, msgs []string) error {
	if err := e.replier.Send(ctx, conversationID, msgs); err != nil {
		return newError(ErrorInternal, "reply_send_error", err)
	}
	return nil
}
