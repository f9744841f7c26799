// Package page is the page object for the streaming site's profile screens.
package page

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"

	applog "github.com/janisto/prima-profile-e2e/internal/platform/logging"
	"github.com/janisto/prima-profile-e2e/internal/service/gateway"
	"github.com/janisto/prima-profile-e2e/internal/slug"
)

// Selectors and labels on the site.
const (
	selAcceptCookies    = "#didomi-notice-agree-button"
	selSignIn           = ".sign-in"
	selLoginEmail       = `input[type="email"]`
	selLoginPassword    = `input[type="password"]`
	selLoginSubmit      = `button[type="submit"]`
	selSelectionTitle   = "h1[data-v-eaeffbd5].title.large"
	selAddProfile       = "button.button.default.reset-width.add"
	selProfileName      = "input.input.with-label"
	selSelectToggle     = ".select .select-toggle"
	selSelectOption     = ".select-list .select-option"
	selFormLink         = "a.form-link"
	selPINInputs        = `div.pin-code input[inputmode="numeric"]`
	selManageProfiles   = "button.button.transparent.edit"
	selProfileItem      = "button.item.edit"
	selDialogPassword   = `input[type="password"]`
	selPrimaryButton    = "button.button.primary"
	selDefaultButton    = "button.button.default"
	titleSelection      = "Kdo se dívá?"
	labelAdult          = "Běžný"
	labelKids           = "Dětský"
	labelGender         = "Pohlaví"
	labelBirthYear      = "Rok narození"
	labelPIN            = "PIN kód"
	labelManageProfiles = "Spravovat profily"
	labelDeleteProfile  = "Smazat profil"
	labelConfirm        = "Potvrdit"
	pinLength           = 4
	pollInterval        = 250 * time.Millisecond
)

// confirmLabels are tried in order to submit the profile form.
var confirmLabels = []string{"Vytvořit", "Uložit", "Potvrdit"}

// ErrStillListed is returned by VerifyProfileDeleted when the profile is still shown.
var ErrStillListed = errors.New("profile still listed")

// Options configures a Page.
type Options struct {
	BaseURL        string
	CommandTimeout time.Duration // per element lookup
	PageTimeout    time.Duration // navigation and settling
	DialogWait     time.Duration // how long a confirmation dialog may take to appear
	PIN            string
}

// Page drives one browser tab.
type Page struct {
	ctx  context.Context
	page *rod.Page
	opts Options
}

// New wraps a Rod page. ctx bounds every browser call and carries the logger.
func New(ctx context.Context, p *rod.Page, opts Options) *Page {
	if opts.CommandTimeout <= 0 {
		opts.CommandTimeout = 10 * time.Second
	}
	if opts.PageTimeout <= 0 {
		opts.PageTimeout = 30 * time.Second
	}
	if opts.DialogWait <= 0 {
		opts.DialogWait = 5 * time.Second
	}
	if opts.PIN == "" {
		opts.PIN = "1234"
	}
	return &Page{ctx: ctx, page: p.Context(ctx), opts: opts}
}

// Rod exposes the underlying page for assertions the page object does not cover.
func (p *Page) Rod() *rod.Page {
	return p.page
}

func (p *Page) find(selector string) (*rod.Element, error) {
	el, err := p.page.Timeout(p.opts.CommandTimeout).Element(selector)
	if err != nil {
		return nil, fmt.Errorf("element %s: %w", selector, err)
	}
	return el.CancelTimeout(), nil
}

func (p *Page) findText(selector, text string) (*rod.Element, error) {
	el, err := p.page.Timeout(p.opts.CommandTimeout).ElementR(selector, regexp.QuoteMeta(text))
	if err != nil {
		return nil, fmt.Errorf("element %s containing %q: %w", selector, text, err)
	}
	return el.CancelTimeout(), nil
}

func click(el *rod.Element) error {
	if err := el.WaitVisible(); err != nil {
		return err
	}
	return el.Click(proto.InputMouseButtonLeft, 1)
}

func (p *Page) clickText(selector, text string) error {
	el, err := p.findText(selector, text)
	if err != nil {
		return err
	}
	if err := click(el); err != nil {
		return fmt.Errorf("clicking %s %q: %w", selector, text, err)
	}
	return nil
}

func (p *Page) typeInto(selector, text string) error {
	el, err := p.find(selector)
	if err != nil {
		return err
	}
	if err := el.SelectAllText(); err != nil {
		return fmt.Errorf("clearing %s: %w", selector, err)
	}
	if err := el.Input(text); err != nil {
		return fmt.Errorf("typing into %s: %w", selector, err)
	}
	return nil
}

func (p *Page) settle() error {
	return p.page.WaitStable(p.opts.PageTimeout / 10)
}

// Visit opens BaseURL+path and optionally accepts the cookie banner.
func (p *Page) Visit(path string, acceptCookies bool) error {
	url := p.opts.BaseURL + strings.TrimPrefix(path, "/")
	nav := p.page.Timeout(p.opts.PageTimeout)
	if err := nav.Navigate(url); err != nil {
		return fmt.Errorf("navigating to %s: %w", url, err)
	}
	if err := nav.WaitLoad(); err != nil {
		return fmt.Errorf("loading %s: %w", url, err)
	}
	applog.LogDebug(p.ctx, "page visited", zap.String("url", url))
	if acceptCookies {
		return p.AcceptCookies()
	}
	return nil
}

// AcceptCookies dismisses the consent banner.
func (p *Page) AcceptCookies() error {
	el, err := p.find(selAcceptCookies)
	if err != nil {
		return err
	}
	return click(el)
}

// Login signs in from the home page and waits for the profile selection screen.
func (p *Page) Login(creds gateway.Credentials) error {
	if err := creds.Validate(); err != nil {
		return err
	}
	if err := p.Visit("", true); err != nil {
		return err
	}
	signIn, err := p.find(selSignIn)
	if err != nil {
		return err
	}
	if err := click(signIn); err != nil {
		return fmt.Errorf("opening sign in: %w", err)
	}
	if err := p.typeInto(selLoginEmail, creds.Email); err != nil {
		return err
	}
	if err := p.typeInto(selLoginPassword, creds.Password); err != nil {
		return err
	}
	submit, err := p.find(selLoginSubmit)
	if err != nil {
		return err
	}
	if err := click(submit); err != nil {
		return fmt.Errorf("submitting login: %w", err)
	}
	return p.VerifyProfileSelectionPage()
}

// VerifyProfileSelectionPage waits for the "Kdo se dívá?" heading, preferring the
// styled title and falling back to any h1 with that text.
func (p *Page) VerifyProfileSelectionPage() error {
	pattern := regexp.QuoteMeta(titleSelection)
	heading, err := p.page.Timeout(p.opts.PageTimeout).ElementR("h1", pattern)
	if err != nil {
		return fmt.Errorf("profile selection page not reached: %w", err)
	}
	heading = heading.CancelTimeout()

	if ok, specific, _ := p.page.HasR(selSelectionTitle, pattern); ok {
		heading = specific
	} else {
		applog.LogDebug(p.ctx, "specific selection title not found, using fallback heading")
	}
	if err := heading.WaitVisible(); err != nil {
		return fmt.Errorf("selection title not visible: %w", err)
	}
	return nil
}

// SelectProfile picks a profile on the selection screen and waits to land on the home page.
func (p *Page) SelectProfile(name string) error {
	if err := p.clickText("button", name); err != nil {
		return err
	}
	if err := p.settle(); err != nil {
		return fmt.Errorf("waiting after profile selection: %w", err)
	}
	info, err := p.page.Info()
	if err != nil {
		return err
	}
	if info.URL != p.opts.BaseURL {
		return fmt.Errorf("expected %s after selecting %s, got %s", p.opts.BaseURL, name, info.URL)
	}
	return nil
}

// ProfileForm is what the create profile form asks for.
type ProfileForm struct {
	Name        string
	GenderLabel string // Muž, Žena, Chlapec, Dívka
	BirthYear   string
	Kids        bool
	WithPIN     bool
}

// CreateProfile fills and submits the create profile form.
func (p *Page) CreateProfile(form ProfileForm) error {
	button := labelAdult
	if form.Kids {
		button = labelKids
	}
	applog.LogInfo(p.ctx, "creating profile via UI",
		zap.String("name", form.Name),
		zap.Bool("kids", form.Kids),
		zap.Bool("pin", form.WithPIN),
	)

	if err := p.clickText(selAddProfile, button); err != nil {
		return err
	}
	if err := p.typeInto(selProfileName, form.Name); err != nil {
		return err
	}
	if err := p.chooseOption(labelGender, form.GenderLabel); err != nil {
		return err
	}
	if err := p.chooseOption(labelBirthYear, form.BirthYear); err != nil {
		return err
	}
	if form.WithPIN {
		if err := p.clickText(selFormLink, labelPIN); err != nil {
			return err
		}
		if err := p.enterPIN(); err != nil {
			return err
		}
	}
	return p.confirmForm()
}

func (p *Page) chooseOption(toggle, option string) error {
	if err := p.clickText(selSelectToggle, toggle); err != nil {
		return err
	}
	return p.clickText(selSelectOption, option)
}

// enterPIN types one digit into each of the four PIN boxes. The site saves it on its own.
func (p *Page) enterPIN() error {
	if err := checkPIN(p.opts.PIN); err != nil {
		return err
	}
	if _, err := p.find(selPINInputs); err != nil {
		return err
	}
	inputs, err := p.page.Elements(selPINInputs)
	if err != nil {
		return fmt.Errorf("pin inputs: %w", err)
	}
	if err := checkPINInputs(len(inputs)); err != nil {
		return err
	}
	for i, digit := range p.opts.PIN {
		if err := inputs[i].Input(string(digit)); err != nil {
			return fmt.Errorf("pin digit %d: %w", i+1, err)
		}
	}
	return p.settle()
}

func checkPIN(pin string) error {
	if len(pin) != pinLength {
		return fmt.Errorf("pin must be %d digits, got %d characters", pinLength, len(pin))
	}
	for _, r := range pin {
		if r < '0' || r > '9' {
			return fmt.Errorf("pin must be %d digits, got %q", pinLength, pin)
		}
	}
	return nil
}

func checkPINInputs(found int) error {
	if found < pinLength {
		return fmt.Errorf("expected %d pin inputs, found %d", pinLength, found)
	}
	return nil
}

func (p *Page) confirmForm() error {
	for _, label := range confirmLabels {
		ok, el, err := p.page.HasR("button", regexp.QuoteMeta(label))
		if err != nil {
			return err
		}
		if ok {
			return click(el)
		}
	}
	applog.LogWarn(p.ctx, "no confirm button found on profile form")
	return nil
}

// snapshot reads readiness and every h1 text in one evaluation.
func (p *Page) snapshot() (Snapshot, error) {
	res, err := p.page.Eval(`() => JSON.stringify({
		ready: document.readyState === "complete",
		headings: Array.from(document.querySelectorAll("h1")).map(h => h.textContent.trim())
	})`)
	if err != nil {
		return Snapshot{}, fmt.Errorf("reading dialog state: %w", err)
	}
	var s Snapshot
	if err := json.Unmarshal([]byte(res.Value.Str()), &s); err != nil {
		return Snapshot{}, fmt.Errorf("decoding dialog state: %w", err)
	}
	return s, nil
}

// awaitDialog polls until the page leaves DialogAwaiting or DialogWait elapses.
func (p *Page) awaitDialog() (DialogState, error) {
	deadline := time.Now().Add(p.opts.DialogWait)
	for {
		snap, err := p.snapshot()
		if err != nil {
			return DialogAwaiting, err
		}
		state := ClassifyDialog(snap)
		if state != DialogAwaiting {
			return state, nil
		}
		if time.Now().After(deadline) {
			return DialogNone, nil
		}
		select {
		case <-p.ctx.Done():
			return DialogAwaiting, p.ctx.Err()
		case <-time.After(pollInterval):
		}
	}
}

func (p *Page) resolveDialog(creds gateway.Credentials) error {
	state, err := p.awaitDialog()
	if err != nil {
		return err
	}
	applog.LogDebug(p.ctx, "confirmation dialog", zap.Stringer("state", state))

	switch state {
	case DialogPIN:
		return p.enterPIN()
	case DialogPassword:
		if err := p.typeInto(selDialogPassword, creds.Password); err != nil {
			return err
		}
		if err := p.clickText(selPrimaryButton, labelConfirm); err != nil {
			return err
		}
		return p.settle()
	default:
		return nil
	}
}

// OpenProfileManagement opens the edit screen of the named profile, answering a
// PIN or password prompt when the site asks for one.
func (p *Page) OpenProfileManagement(name string, creds gateway.Credentials) error {
	if err := p.clickText(selManageProfiles, labelManageProfiles); err != nil {
		return err
	}
	if err := p.settle(); err != nil {
		return err
	}
	if err := p.clickText(selProfileItem, name); err != nil {
		return err
	}
	return p.resolveDialog(creds)
}

// DeleteProfile deletes the profile whose edit screen is open.
func (p *Page) DeleteProfile(name string, creds gateway.Credentials) error {
	if err := p.clickText(selFormLink, labelDeleteProfile); err != nil {
		return err
	}
	if err := p.resolveDialog(creds); err != nil {
		return err
	}

	pattern := regexp.QuoteMeta(labelDeleteProfile)
	ok, el, err := p.page.HasR(selDefaultButton, pattern)
	if err != nil {
		return err
	}
	if !ok {
		ok, el, err = p.page.HasR("button", pattern)
		if err != nil {
			return err
		}
	}
	if !ok {
		applog.LogWarn(p.ctx, "no deletion confirm button found", zap.String("profile", name))
		return nil
	}
	if err := click(el); err != nil {
		return fmt.Errorf("confirming deletion: %w", err)
	}
	applog.LogInfo(p.ctx, "profile deleted via UI", zap.String("profile", name))
	return p.settle()
}

// VerifyProfileDeleted checks that the selection screen no longer lists name.
func (p *Page) VerifyProfileDeleted(name string) error {
	if err := p.VerifyProfileSelectionPage(); err != nil {
		return err
	}
	ok, _, err := p.page.HasR("button", regexp.QuoteMeta(name))
	if err != nil {
		return err
	}
	if ok {
		return fmt.Errorf("%w: %s", ErrStillListed, name)
	}
	return nil
}

// Screenshot saves a PNG of the viewport under dir, named after title.
func (p *Page) Screenshot(dir, title string) (string, error) {
	img, err := p.page.Screenshot(false, nil)
	if err != nil {
		return "", fmt.Errorf("capturing screenshot: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	name := slug.Make(title)
	if name == "" {
		name = "screenshot"
	}
	path := filepath.Join(dir, name+".png")
	if err := os.WriteFile(path, img, 0o644); err != nil {
		return "", err
	}
	return path, nil
}
