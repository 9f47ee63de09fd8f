package otp

// ResendCooldownSeconds is how long a user waits before a code can be
// re-requested.
const ResendCooldownSeconds = 60

// Countdown is the resend cooldown: it starts at ResendCooldownSeconds,
// decrements once per Tick, and enables resend at zero. Resetting (after a
// resend) starts the wait over.
//
// The type is driven by explicit ticks so callers decide the clock; the CLI
// advances it once per elapsed wall-clock second.
type Countdown struct {
	remaining int
}

// NewCountdown returns a countdown with the full cooldown remaining.
func NewCountdown() *Countdown {
	return &Countdown{remaining: ResendCooldownSeconds}
}

// Tick advances the countdown by one second. Ticking at zero stays at zero.
func (c *Countdown) Tick() {
	if c.remaining > 0 {
		c.remaining--
	}
}

// Remaining returns the seconds left before resend is enabled.
func (c *Countdown) Remaining() int {
	return c.remaining
}

// CanResend reports whether the cooldown has elapsed.
func (c *Countdown) CanResend() bool {
	return c.remaining == 0
}

// Reset restarts the full cooldown, called right after a resend.
func (c *Countdown) Reset() {
	c.remaining = ResendCooldownSeconds
}
