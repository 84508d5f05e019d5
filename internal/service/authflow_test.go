package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/sunstone-mind/sunstone-web/internal/adapters/memory"
	domainauth "github.com/sunstone-mind/sunstone-web/internal/domain/auth"
	"github.com/sunstone-mind/sunstone-web/internal/domain/feedback"
	apperrors "github.com/sunstone-mind/sunstone-web/internal/errors"
	"github.com/sunstone-mind/sunstone-web/internal/mocks"
	fakes "github.com/sunstone-mind/sunstone-web/internal/mocks/auth"
	"github.com/sunstone-mind/sunstone-web/internal/ports"
	"github.com/sunstone-mind/sunstone-web/internal/service/authstate"
)

func newSession(t *testing.T) *authstate.Session {
	t.Helper()
	reg := authstate.NewRegistry(authstate.RegistryOptions{Repo: memory.NewSessionRepository(0)})
	s, err := reg.Open(context.Background(), "")
	require.NoError(t, err)
	return s
}

func validSignUp() domainauth.SignUpForm {
	return domainauth.SignUpForm{Name: "Ada", Email: "ada@example.com", Password: "secret1", ConfirmPassword: "secret1"}
}

func TestAuthFlow_SignUpValidationSkipsNetwork(t *testing.T) {
	ctrl := gomock.NewController(t)
	api := mocks.NewMockAuthAPI(ctrl) // no EXPECT: any call fails the test
	flow := NewAuthFlow(AuthFlowOptions{API: api})
	sess := newSession(t)

	tests := []struct {
		name string
		edit func(*domainauth.SignUpForm)
		msg  string
	}{
		{"short password", func(f *domainauth.SignUpForm) { f.Password, f.ConfirmPassword = "abc", "abc" }, "Password must be at least 6 characters long"},
		{"mismatch", func(f *domainauth.SignUpForm) { f.ConfirmPassword = "secret2" }, "Passwords do not match"},
		{"missing", func(f *domainauth.SignUpForm) { f.Name = "" }, "Please fill in all fields"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := validSignUp()
			tt.edit(&form)
			out, err := flow.SignUp(context.Background(), sess, form)
			require.Error(t, err)
			assert.True(t, apperrors.IsValidation(err))
			assert.Equal(t, tt.msg, out.FormError)
			assert.Equal(t, domainauth.ModeSignUp, out.Mode)
		})
	}
	assert.False(t, sess.Auth.Snapshot().IsAuthenticated)
}

func TestAuthFlow_SignUpSuccess(t *testing.T) {
	ctrl := gomock.NewController(t)
	api := mocks.NewMockAuthAPI(ctrl)
	api.EXPECT().
		Register(gomock.Any(), ports.RegisterRequest{Name: "Ada", Email: "ada@example.com", Password: "secret1"}).
		Return(fakes.RegisteredEnvelope("42", "Ada", "ada@example.com"), nil)

	flow := NewAuthFlow(AuthFlowOptions{API: api})
	sess := newSession(t)
	ctx, sink := feedback.WithSink(context.Background())

	out, err := flow.SignUp(ctx, sess, validSignUp())
	require.NoError(t, err)
	assert.Equal(t, Outcome{Mode: domainauth.ModeSignIn, PrefillEmail: "ada@example.com"}, out)

	st := sess.Auth.Snapshot()
	require.NotNil(t, st.User)
	assert.Equal(t, "42", st.User.ID)
	assert.Empty(t, st.Token)
	assert.False(t, st.IsAuthenticated)
	assert.Equal(t, []feedback.Notice{{Kind: feedback.KindSuccess, Message: MsgRegistered}}, sink.Notices())
	assert.Equal(t, PhaseSuccess, flow.RegisterState(sess.ID).Phase)
}

func TestAuthFlow_SignUpErrorMessages(t *testing.T) {
	ctrl := gomock.NewController(t)
	api := mocks.NewMockAuthAPI(ctrl)
	gomock.InOrder(
		api.EXPECT().Register(gomock.Any(), gomock.Any()).Return(nil, &domainauth.RejectedError{Message: "Email already exists"}),
		api.EXPECT().Register(gomock.Any(), gomock.Any()).Return(nil, errors.New("connection reset")),
	)
	flow := NewAuthFlow(AuthFlowOptions{API: api})
	sess := newSession(t)

	out, err := flow.SignUp(context.Background(), sess, validSignUp())
	require.Error(t, err)
	assert.Equal(t, "Email already exists", out.FormError)
	assert.True(t, domainauth.IsDuplicateAccount(err))

	out, err = flow.SignUp(context.Background(), sess, validSignUp())
	require.Error(t, err)
	assert.Equal(t, MsgRegisterFailed, out.FormError)
	assert.Equal(t, PhaseError, flow.RegisterState(sess.ID).Phase)
	assert.Nil(t, sess.Auth.Snapshot().User)
}

func TestAuthFlow_SignInWithToken(t *testing.T) {
	ctrl := gomock.NewController(t)
	api := mocks.NewMockAuthAPI(ctrl)
	api.EXPECT().
		Login(gomock.Any(), ports.LoginRequest{Email: "ada@example.com", Password: "secret1"}).
		Return(fakes.LoggedInEnvelope("42", "Ada", "ada@example.com", "abc"), nil)

	flow := NewAuthFlow(AuthFlowOptions{API: api})
	sess := newSession(t)

	out, err := flow.SignIn(context.Background(), sess, domainauth.SignInForm{Email: "ada@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, DashboardPath, out.Redirect)
	assert.Equal(t, "abc", out.Token)

	st := sess.Auth.Snapshot()
	assert.True(t, st.IsAuthenticated)
	assert.Equal(t, "abc", st.Token)
	require.NotNil(t, st.User)
	assert.Equal(t, "42", st.User.ID)
	assert.Equal(t, "ada@example.com", st.User.Email)
}

func TestAuthFlow_SignInWithoutToken(t *testing.T) {
	ctrl := gomock.NewController(t)
	api := mocks.NewMockAuthAPI(ctrl)
	api.EXPECT().Login(gomock.Any(), gomock.Any()).
		Return(fakes.LoggedInEnvelope("42", "Ada", "ada@example.com", ""), nil)

	flow := NewAuthFlow(AuthFlowOptions{API: api})
	sess := newSession(t)
	ctx, sink := feedback.WithSink(context.Background())

	out, err := flow.SignIn(ctx, sess, domainauth.SignInForm{Email: "ada@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Empty(t, out.Redirect)
	assert.Empty(t, out.Token)
	assert.False(t, sess.Auth.Snapshot().IsAuthenticated)
	assert.Equal(t, MsgNoSessionIssued, sink.Notices()[0].Message)
}

func TestAuthFlow_SignInErrorFallback(t *testing.T) {
	ctrl := gomock.NewController(t)
	api := mocks.NewMockAuthAPI(ctrl)
	api.EXPECT().Login(gomock.Any(), gomock.Any()).Return(nil, errors.New("eof"))

	flow := NewAuthFlow(AuthFlowOptions{API: api})
	out, err := flow.SignIn(context.Background(), newSession(t), domainauth.SignInForm{Email: "a@b.c", Password: "x"})
	require.Error(t, err)
	assert.True(t, apperrors.IsUpstream(err))
	assert.Equal(t, MsgLoginFailed, out.FormError)
}

func TestAuthFlow_SignInRejectsDuplicateSubmission(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	stub := &fakes.StubAuthAPI{
		LoginFunc: func(context.Context, ports.LoginRequest) (*domainauth.LoginEnvelope, error) {
			close(started)
			<-release
			return fakes.LoggedInEnvelope("1", "Ada", "ada@example.com", "abc"), nil
		},
	}
	flow := NewAuthFlow(AuthFlowOptions{API: stub})
	sess := newSession(t)
	form := domainauth.SignInForm{Email: "ada@example.com", Password: "secret1"}

	type result struct {
		out Outcome
		err error
	}
	done := make(chan result, 1)
	go func() {
		out, err := flow.SignIn(context.Background(), sess, form)
		done <- result{out, err}
	}()
	<-started
	assert.True(t, flow.Pending(sess.ID))

	_, err := flow.SignIn(context.Background(), sess, form)
	assert.ErrorIs(t, err, ErrSubmissionInFlight)

	close(release)
	first := <-done
	require.NoError(t, first.err)
	assert.Equal(t, "abc", first.out.Token)
	assert.Equal(t, DashboardPath, first.out.Redirect)
	assert.True(t, sess.Auth.Snapshot().IsAuthenticated)
	assert.Len(t, stub.LoginCalls(), 1)
}

func TestAuthFlow_SignUpRejectsDuplicateSubmission(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	stub := &fakes.StubAuthAPI{
		RegisterFunc: func(context.Context, ports.RegisterRequest) (*domainauth.RegisterEnvelope, error) {
			close(started)
			<-release
			return fakes.RegisteredEnvelope("7", "Ada", "ada@example.com"), nil
		},
	}
	flow := NewAuthFlow(AuthFlowOptions{API: stub})
	sess := newSession(t)
	form := domainauth.SignUpForm{
		Name: "Ada", Email: "ada@example.com", Password: "secret1", ConfirmPassword: "secret1",
	}

	type result struct {
		out Outcome
		err error
	}
	done := make(chan result, 1)
	go func() {
		out, err := flow.SignUp(context.Background(), sess, form)
		done <- result{out, err}
	}()
	<-started

	_, err := flow.SignUp(context.Background(), sess, form)
	assert.ErrorIs(t, err, ErrSubmissionInFlight)

	close(release)
	first := <-done
	require.NoError(t, first.err)
	assert.Equal(t, domainauth.ModeSignIn, first.out.Mode)
	assert.Equal(t, "ada@example.com", first.out.PrefillEmail)
	snap := sess.Auth.Snapshot()
	require.NotNil(t, snap.User)
	assert.Equal(t, "7", snap.User.ID)
	assert.False(t, snap.IsAuthenticated)
	assert.Len(t, stub.RegisterCalls(), 1)
}

func TestAuthFlow_LateResponseAfterSignOutIsDropped(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	stub := &fakes.StubAuthAPI{
		LoginFunc: func(context.Context, ports.LoginRequest) (*domainauth.LoginEnvelope, error) {
			close(started)
			<-release
			return fakes.LoggedInEnvelope("1", "Ada", "ada@example.com", "late"), nil
		},
	}
	flow := NewAuthFlow(AuthFlowOptions{API: stub})
	sess := newSession(t)

	done := make(chan error, 1)
	go func() {
		_, err := flow.SignIn(context.Background(), sess, domainauth.SignInForm{Email: "ada@example.com", Password: "secret1"})
		done <- err
	}()
	<-started
	out := flow.SignOut(context.Background(), sess)
	assert.Equal(t, AuthPath, out.Redirect)
	assert.True(t, out.ClearCookies)

	close(release)
	assert.ErrorIs(t, <-done, authstate.ErrStaleWrite)
	assert.False(t, sess.Auth.Snapshot().IsAuthenticated)
}

func TestAuthFlow_ForgetResetsPhases(t *testing.T) {
	stub := &fakes.StubAuthAPI{
		LoginFunc: func(context.Context, ports.LoginRequest) (*domainauth.LoginEnvelope, error) {
			return nil, errors.New("eof")
		},
	}
	flow := NewAuthFlow(AuthFlowOptions{API: stub})
	sess := newSession(t)

	_, err := flow.SignIn(context.Background(), sess, domainauth.SignInForm{Email: "a@b.c", Password: "x"})
	require.Error(t, err)
	assert.Equal(t, PhaseError, flow.LoginState(sess.ID).Phase)

	flow.Forget(sess.ID)
	assert.Equal(t, PhaseIdle, flow.LoginState(sess.ID).Phase)
	assert.Equal(t, PhaseIdle, flow.RegisterState(sess.ID).Phase)
}
