package engine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"intake-agent/internal/domain"
	"intake-agent/internal/ledger"
	"intake-agent/internal/messages"
	"intake-agent/internal/session"
)

type mockLedger struct {
	mu       sync.Mutex
	used     map[string]bool
	usedErr  error
	attempts []string
	outcomes []outcomeCall
	writeErr error
}

type outcomeCall struct {
	email    string
	fileName string
	status   domain.Status
	extra    ledger.Extra
}

func newMockLedger() *mockLedger {
	return &mockLedger{used: make(map[string]bool)}
}

func (m *mockLedger) IsEmailUsed(_ context.Context, email string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.used[email], m.usedErr
}

func (m *mockLedger) RecordAttempt(_ context.Context, email string, _ domain.Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writeErr != nil {
		return m.writeErr
	}
	m.used[email] = true
	m.attempts = append(m.attempts, email)
	return nil
}

func (m *mockLedger) UpdateOutcome(_ context.Context, email, fileName string, status domain.Status, extra ledger.Extra) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writeErr != nil {
		return m.writeErr
	}
	m.outcomes = append(m.outcomes, outcomeCall{email: email, fileName: fileName, status: status, extra: extra})
	return nil
}

type mockNotifier struct {
	forwardErr    error
	forwardCalls  int
	confirmCalls  int
	adminOutcome  string
	lastApplicant string
	lastFilePath  string
}

func (m *mockNotifier) ForwardResume(_ context.Context, applicantEmail, filePath string) error {
	m.forwardCalls++
	m.lastApplicant = applicantEmail
	m.lastFilePath = filePath
	return m.forwardErr
}

func (m *mockNotifier) ConfirmToApplicant(_ context.Context, _ string) {
	m.confirmCalls++
}

func (m *mockNotifier) NotifyAdmin(_ context.Context, _, _ string) string {
	if m.adminOutcome == "" {
		return "Admin notified"
	}
	return m.adminOutcome
}

type captureReplier struct {
	mu      sync.Mutex
	replies []reply
	err     error
}

type reply struct {
	conversationID string
	messages       []string
}

func (c *captureReplier) Send(_ context.Context, conversationID string, msgs []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.replies = append(c.replies, reply{conversationID: conversationID, messages: msgs})
	return nil
}

func (c *captureReplier) last(t *testing.T) reply {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	require.NotEmpty(t, c.replies)
	return c.replies[len(c.replies)-1]
}

func (c *captureReplier) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.replies)
}

type fakeDownloader struct {
	t     *testing.T
	err   error
	calls int
}

func (f *fakeDownloader) Download(_ context.Context, _, fileName string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	path := filepath.Join(f.t.TempDir(), fileName)
	require.NoError(f.t, os.WriteFile(path, []byte("resume bytes"), 0o644))
	return path, nil
}

type fixture struct {
	engine   *Engine
	sessions *session.MemoryStore
	intake   *mockLedger
	notifier *mockNotifier
	files    *fakeDownloader
	replier  *captureReplier
	msgs     messages.Catalog
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		sessions: session.NewMemoryStore(),
		intake:   newMockLedger(),
		notifier: &mockNotifier{},
		files:    &fakeDownloader{t: t},
		replier:  &captureReplier{},
		msgs:     messages.Default(),
	}
	eng, err := New(f.sessions, f.intake, f.notifier, f.files, f.replier, f.msgs)
	require.NoError(t, err)
	f.engine = eng
	return f
}

func (f *fixture) start(t *testing.T, conversationID string) {
	t.Helper()
	require.NoError(t, f.engine.HandleEvent(context.Background(), domain.Event{
		ConversationID: conversationID,
		Kind:           domain.EventStart,
	}))
}

func (f *fixture) sendText(t *testing.T, conversationID, text string) error {
	t.Helper()
	return f.engine.HandleEvent(context.Background(), domain.Event{
		ConversationID: conversationID,
		Kind:           domain.EventText,
		Text:           text,
	})
}

func (f *fixture) sendFile(conversationID string, meta domain.FileMeta) error {
	return f.engine.HandleEvent(context.Background(), domain.Event{
		ConversationID: conversationID,
		Kind:           domain.EventFile,
		File:           &meta,
	})
}

func (f *fixture) sessionState(t *testing.T, conversationID string) *domain.Session {
	t.Helper()
	sess, err := f.sessions.Get(context.Background(), conversationID)
	require.NoError(t, err)
	return sess
}

func pdfMeta() domain.FileMeta {
	return domain.FileMeta{
		FileID:    "file-1",
		FileName:  "resume.pdf",
		MimeType:  "application/pdf",
		SizeBytes: 100_000,
	}
}

func TestNew_Validation(t *testing.T) {
	f := newFixture(t)
	_, err := New(nil, f.intake, f.notifier, f.files, f.replier, f.msgs)
	require.Error(t, err)
	_, err = New(f.sessions, nil, f.notifier, f.files, f.replier, f.msgs)
	require.Error(t, err)
	_, err = New(f.sessions, f.intake, nil, f.files, f.replier, f.msgs)
	require.Error(t, err)
	_, err = New(f.sessions, f.intake, f.notifier, nil, f.replier, f.msgs)
	require.Error(t, err)
	_, err = New(f.sessions, f.intake, f.notifier, f.files, nil, f.msgs)
	require.Error(t, err)
}

func TestStart_OpensSessionAndSendsWelcome(t *testing.T) {
	f := newFixture(t)
	f.start(t, "123")

	sess := f.sessionState(t, "123")
	require.NotNil(t, sess)
	require.Equal(t, domain.StateAwaitingEmail, sess.State)
	require.Equal(t, f.msgs.Welcome, f.replier.last(t).messages)
}

func TestEventWithoutSessionIsIgnored(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.sendText(t, "123", "hello"))
	require.Zero(t, f.replier.count())
	require.Empty(t, f.intake.attempts)
}

func TestInvalidEmail_RepromptsWithoutLedgerWrite(t *testing.T) {
	f := newFixture(t)
	f.start(t, "123")

	require.NoError(t, f.sendText(t, "123", "not-an-email"))

	sess := f.sessionState(t, "123")
	require.Equal(t, domain.StateAwaitingEmail, sess.State)
	require.Equal(t, []string{f.msgs.InvalidEmail}, f.replier.last(t).messages)
	require.Empty(t, f.intake.attempts)
}

func TestValidEmail_RecordsAttemptAndAdvances(t *testing.T) {
	f := newFixture(t)
	f.start(t, "123")

	require.NoError(t, f.sendText(t, "123", "a@b.com"))

	sess := f.sessionState(t, "123")
	require.Equal(t, domain.StateAwaitingResume, sess.State)
	require.Equal(t, "a@b.com", sess.Email)
	require.Equal(t, []string{"a@b.com"}, f.intake.attempts)

	prompt := f.replier.last(t)
	require.Contains(t, prompt.messages[0], "a@b.com")
	for _, msg := range prompt.messages {
		require.NotContains(t, msg, "{email}")
	}
}

func TestDuplicateEmail_InformsAndStays(t *testing.T) {
	f := newFixture(t)
	f.intake.used["a@b.com"] = true
	f.start(t, "123")

	require.NoError(t, f.sendText(t, "123", "a@b.com"))

	sess := f.sessionState(t, "123")
	require.Equal(t, domain.StateAwaitingEmail, sess.State)
	require.Equal(t, []string{f.msgs.EmailUsed}, f.replier.last(t).messages)
	require.Empty(t, f.intake.attempts)
}

func TestOversizedFile_RejectedBeforeDownload(t *testing.T) {
	f := newFixture(t)
	f.start(t, "123")
	require.NoError(t, f.sendText(t, "123", "a@b.com"))

	meta := pdfMeta()
	meta.SizeBytes = 3_000_000
	require.NoError(t, f.sendFile("123", meta))

	sess := f.sessionState(t, "123")
	require.Equal(t, domain.StateAwaitingResume, sess.State)
	require.Equal(t, []string{f.msgs.InvalidFile}, f.replier.last(t).messages)
	require.Zero(t, f.files.calls)
	require.Empty(t, f.intake.outcomes)
}

func TestWrongMimeType_Rejected(t *testing.T) {
	f := newFixture(t)
	f.start(t, "123")
	require.NoError(t, f.sendText(t, "123", "a@b.com"))

	meta := pdfMeta()
	meta.MimeType = "image/png"
	require.NoError(t, f.sendFile("123", meta))
	require.Equal(t, []string{f.msgs.InvalidFile}, f.replier.last(t).messages)
}

func TestNonFileWhileAwaitingResume_SendsReminder(t *testing.T) {
	f := newFixture(t)
	f.start(t, "123")
	require.NoError(t, f.sendText(t, "123", "a@b.com"))

	require.NoError(t, f.sendText(t, "123", "here is my resume"))

	sess := f.sessionState(t, "123")
	require.Equal(t, domain.StateAwaitingResume, sess.State)
	require.Equal(t, []string{f.msgs.UploadResume}, f.replier.last(t).messages)
}

func TestSuccessfulUpload_CompletesConversation(t *testing.T) {
	f := newFixture(t)
	f.start(t, "123")
	require.NoError(t, f.sendText(t, "123", "a@b.com"))

	require.NoError(t, f.sendFile("123", pdfMeta()))

	require.Equal(t, 1, f.notifier.forwardCalls)
	require.Equal(t, "a@b.com", f.notifier.lastApplicant)
	require.Equal(t, 1, f.notifier.confirmCalls)

	// Staged copy is removed after the forward.
	_, err := os.Stat(f.notifier.lastFilePath)
	require.True(t, os.IsNotExist(err))

	require.Len(t, f.intake.outcomes, 1)
	outcome := f.intake.outcomes[0]
	require.Equal(t, "a@b.com", outcome.email)
	require.Equal(t, "resume.pdf", outcome.fileName)
	require.Equal(t, domain.StatusSuccess, outcome.status)
	require.Equal(t, "Admin notified", outcome.extra.NotifiedAdmins)

	require.Nil(t, f.sessionState(t, "123"))
	require.Equal(t, f.msgs.Success, f.replier.last(t).messages)
}

func TestAdminNotificationFailure_DoesNotChangeSuccessPath(t *testing.T) {
	f := newFixture(t)
	f.notifier.adminOutcome = "Admin notification failed: chat unreachable"
	f.start(t, "123")
	require.NoError(t, f.sendText(t, "123", "a@b.com"))

	require.NoError(t, f.sendFile("123", pdfMeta()))

	require.Len(t, f.intake.outcomes, 1)
	require.Equal(t, domain.StatusSuccess, f.intake.outcomes[0].status)
	require.Equal(t, "Admin notification failed: chat unreachable", f.intake.outcomes[0].extra.NotifiedAdmins)
	require.Equal(t, f.msgs.Success, f.replier.last(t).messages)
	require.Nil(t, f.sessionState(t, "123"))
}

func TestForwardFailure_RecordsErrorAndDiscardsSession(t *testing.T) {
	f := newFixture(t)
	f.notifier.forwardErr = errors.New("smtp down")
	f.start(t, "123")
	require.NoError(t, f.sendText(t, "123", "a@b.com"))

	err := f.sendFile("123", pdfMeta())
	require.Error(t, err)
	var engErr *Error
	require.ErrorAs(t, err, &engErr)
	require.Equal(t, ErrorTransferFailure, engErr.Code)

	require.Len(t, f.intake.outcomes, 1)
	outcome := f.intake.outcomes[0]
	require.Equal(t, domain.StatusError, outcome.status)
	require.Contains(t, outcome.extra.Error, "smtp down")

	require.Equal(t, []string{f.msgs.Error}, f.replier.last(t).messages)
	require.Nil(t, f.sessionState(t, "123"))
	require.Zero(t, f.notifier.confirmCalls)
}

func TestDownloadFailure_RecordsErrorAndDiscardsSession(t *testing.T) {
	f := newFixture(t)
	f.files.err = errors.New("telegram timeout")
	f.start(t, "123")
	require.NoError(t, f.sendText(t, "123", "a@b.com"))

	err := f.sendFile("123", pdfMeta())
	var engErr *Error
	require.ErrorAs(t, err, &engErr)
	require.Equal(t, ErrorTransferFailure, engErr.Code)

	require.Len(t, f.intake.outcomes, 1)
	require.Contains(t, f.intake.outcomes[0].extra.Error, "telegram timeout")
	require.Zero(t, f.notifier.forwardCalls)
	require.Nil(t, f.sessionState(t, "123"))
}

func TestLedgerReadError_Surfaces(t *testing.T) {
	f := newFixture(t)
	f.intake.usedErr = errors.New("disk gone")
	f.start(t, "123")

	err := f.sendText(t, "123", "a@b.com")
	var engErr *Error
	require.ErrorAs(t, err, &engErr)
	require.Equal(t, ErrorInternal, engErr.Code)
}

func TestConversationsProgressIndependently(t *testing.T) {
	f := newFixture(t)

	f.start(t, "1")
	f.start(t, "2")
	require.NoError(t, f.sendText(t, "1", "first@b.com"))
	require.NoError(t, f.sendText(t, "2", "second@b.com"))
	require.NoError(t, f.sendFile("1", pdfMeta()))

	require.Nil(t, f.sessionState(t, "1"))
	sess2 := f.sessionState(t, "2")
	require.NotNil(t, sess2)
	require.Equal(t, domain.StateAwaitingResume, sess2.State)
	require.Equal(t, "second@b.com", sess2.Email)
}
