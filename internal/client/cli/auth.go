package cli

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/ayurlekha/ayurlekha/internal/client/otp"
	"github.com/ayurlekha/ayurlekha/internal/client/services"
	"github.com/ayurlekha/ayurlekha/internal/common"
)

// getSimpleText and nowFn are indirections used to facilitate testing.
var getSimpleText = GetSimpleText
var nowFn = time.Now

// Login runs the two-step OTP sign-in: request a code for an e-mail address,
// then verify it. During verification the user may type "resend" to request
// a fresh code (rate-limited by a cooldown) or "cancel" to abandon sign-in.
// A wrong code clears the entry for a fresh attempt.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}

	if err := a.session.BeginSignIn(ctx, email); err != nil {
		if errors.Is(err, common.ErrInvalidEmail) {
			printlnFn("Please enter a valid email address.")
			return nil
		}
		printlnFn(services.FailureMessage(err))
		return err
	}
	printlnFn("A 6-digit code was sent to", a.session.PendingEmail())

	entry := otp.NewCodeEntry()
	countdown := otp.NewCountdown()
	last := nowFn()

	for {
		line, err := getSimpleText(a.reader, "Enter code (or 'resend' / 'cancel')", os.Stdout)
		if err != nil {
			a.session.CancelSignIn()
			return err
		}

		// The cooldown runs on wall time, one tick per elapsed second.
		now := nowFn()
		for i := 0; i < int(now.Sub(last).Seconds()); i++ {
			countdown.Tick()
		}
		last = now

		switch line {
		case "cancel":
			a.session.CancelSignIn()
			printlnFn("Sign-in cancelled.")
			return nil

		case "resend":
			if !countdown.CanResend() {
				printlnFn("Please wait", countdown.Remaining(), "seconds before resending.")
				continue
			}
			if err := a.session.ResendCode(ctx); err != nil {
				printlnFn(services.FailureMessage(err))
				continue
			}
			countdown.Reset()
			entry.Clear()
			printlnFn("A fresh code was sent.")
			continue
		}

		if complete := entry.SetCode(line); !complete {
			printlnFn("The code has", otp.CodeLength, "digits.")
			entry.Clear()
			continue
		}
		code, err := entry.Code()
		if err != nil {
			entry.Clear()
			continue
		}

		if err := a.session.CompleteSignIn(ctx, code); err != nil {
			printlnFn(services.FailureMessage(err))
			entry.Clear()
			continue
		}

		printlnFn("Signed in as", a.signedInEmail())
		return nil
	}
}

func (a *App) signedInEmail() string {
	if sess := a.session.Current(); sess != nil {
		return sess.Email
	}
	return ""
}

// SignOut ends the session and wipes the local caches.
func (a *App) SignOut(ctx context.Context) error {
	a.session.SignOut(ctx)
	printlnFn("Signed out.")
	return nil
}
