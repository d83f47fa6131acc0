package healthie

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"

	"github.com/northbridgehealth/voice-agent/internal/ehr"
	"github.com/northbridgehealth/voice-agent/pkg/logging"
)

// Healthie DOM selectors. These are a versioned, fragile contract with the
// vendor's frontend: any selector or flow change upstream breaks this
// transport.
const (
	selEmail           = `input[name="email"]`
	selPassword        = `input[name="password"]`
	selSearch          = `input[name="keywords"]`
	selAddApptBtn      = `button[data-testid="add-appointment-button"]`
	selApptModal       = `[data-testid="appointment-form-modal"]`
	selDate            = `input[name="date"]`
	selTime            = `input[name="time"]`
	selModalSubmit     = `[data-testid="appointment-form-modal"] button[data-testid="primaryButton"]`
	selApptPreviewItem = `li[data-testid="appointment-preview-item"]`
	selApptDetailPopup = `[data-testid="appointment-detail-popup"]`
	selStatusInput     = `#pm_status`
)

// browserTimings holds every fixed delay and poll bound used by the
// transport. The remote UI offers no reliable completion signal for its
// client-side transitions, so these are wall-clock waits; where a DOM signal
// is observable (modal close, warning banner) we poll instead. Tests
// substitute near-zero values.
type browserTimings struct {
	loginTimeout     time.Duration
	operationTimeout time.Duration
	healthTimeout    time.Duration
	sessionCheck     time.Duration
	postLoginDelay   time.Duration
	postNavDelay     time.Duration
	modalOpenDelay   time.Duration
	selectOpenDelay  time.Duration
	selectArrowDelay time.Duration
	datePickerClose  time.Duration
	typeKeyDelay     time.Duration
	pollInterval     time.Duration
	maxPollAttempts  int
}

func defaultBrowserTimings() browserTimings {
	return browserTimings{
		loginTimeout:     30 * time.Second,
		operationTimeout: 120 * time.Second,
		healthTimeout:    10 * time.Second,
		sessionCheck:     5 * time.Second,
		postLoginDelay:   3 * time.Second,
		postNavDelay:     2 * time.Second,
		modalOpenDelay:   1500 * time.Millisecond,
		selectOpenDelay:  500 * time.Millisecond,
		selectArrowDelay: 150 * time.Millisecond,
		datePickerClose:  300 * time.Millisecond,
		typeKeyDelay:     30 * time.Millisecond,
		pollInterval:     500 * time.Millisecond,
		maxPollAttempts:  20,
	}
}

// BrowserConfig holds configuration for the browser transport.
type BrowserConfig struct {
	Email    string
	Password string
	BaseURL  string
	Headless bool
	Logger   *logging.Logger
}

// BrowserClient implements ehr.Client by driving Healthie's web UI in a
// headless browser. Cancellation uses the by-(patient, date, time) variant.
//
// A single browser session is reused across operations and re-established
// when a redirect back to the sign-in page is detected. One instance cannot
// service concurrent operations; callers serialize.
type BrowserClient struct {
	email    string
	password string
	baseURL  string
	headless bool
	logger   *logging.Logger
	timings  browserTimings

	// countElements and readModalWarning are thin wrappers over browser
	// evaluation; tests substitute them to drive the poll loops without a
	// live browser.
	countElements    func(page context.Context, sel string) (int, error)
	readModalWarning func(page context.Context) (string, error)

	// mu guards the session handles below.
	mu            sync.Mutex
	allocCancel   context.CancelFunc
	browserCancel context.CancelFunc
	pageCtx       context.Context
}

// NewBrowserClient creates the UI-automation transport.
func NewBrowserClient(cfg BrowserConfig) (*BrowserClient, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("healthie: BaseURL is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	c := &BrowserClient{
		email:    cfg.Email,
		password: cfg.Password,
		baseURL:  strings.TrimSuffix(cfg.BaseURL, "/"),
		headless: cfg.Headless,
		logger:   logger.Component("healthie-browser"),
		timings:  defaultBrowserTimings(),
	}
	c.countElements = c.evalCount
	c.readModalWarning = c.evalModalWarning
	return c, nil
}

func (c *BrowserClient) evalCount(page context.Context, sel string) (int, error) {
	var count int
	err := runWithTimeout(page, c.timings.operationTimeout,
		chromedp.Evaluate(elementCountJS(sel), &count),
	)
	return count, err
}

func (c *BrowserClient) evalModalWarning(page context.Context) (string, error) {
	var warning string
	err := runWithTimeout(page, c.timings.operationTimeout,
		chromedp.Evaluate(modalWarningJS, &warning),
	)
	return warning, err
}

// ensureSession returns an authenticated browser context, logging in when
// there is no session or the previous one expired (detected by the current
// URL pointing back at the sign-in page).
func (c *BrowserClient) ensureSession(ctx context.Context) (context.Context, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pageCtx != nil {
		var location string
		checkCtx, cancel := context.WithTimeout(c.pageCtx, c.timings.sessionCheck)
		err := chromedp.Run(checkCtx, chromedp.Location(&location))
		cancel()
		switch {
		case err != nil:
			c.logger.Warn("Healthie session check failed, re-authenticating")
			c.closeLocked()
		case strings.Contains(location, "sign_in"):
			c.logger.Warn("Healthie session expired, re-authenticating")
			c.closeLocked()
		default:
			c.logger.Debug("reusing existing Healthie session")
			return c.pageCtx, nil
		}
	}

	if c.email == "" || c.password == "" {
		return nil, ehr.Unavailable("HEALTHIE_EMAIL and HEALTHIE_PASSWORD must be set")
	}

	c.logger.Info("logging into Healthie")
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts,
		chromedp.Flag("headless", c.headless),
		chromedp.WindowSize(1440, 900),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	pageCtx, browserCancel := chromedp.NewContext(allocCtx)
	c.allocCancel = allocCancel
	c.browserCancel = browserCancel
	c.pageCtx = pageCtx

	loginCtx, cancel := context.WithTimeout(pageCtx, c.timings.loginTimeout)
	defer cancel()

	var location string
	err := chromedp.Run(loginCtx,
		network.Enable(),
		// The Font Awesome CDN is slow enough to stall page loads.
		network.SetBlockedURLs([]string{"*use.fontawesome.com*"}),
		chromedp.Navigate(c.baseURL+"/users/sign_in"),
		chromedp.WaitVisible(selEmail, chromedp.ByQuery),
		chromedp.SendKeys(selEmail, c.email, chromedp.ByQuery),
		chromedp.WaitVisible(selPassword, chromedp.ByQuery),
		chromedp.SendKeys(selPassword, c.password, chromedp.ByQuery),
		clickButtonByText("Log In"),
		chromedp.Sleep(c.timings.postLoginDelay),
		chromedp.Location(&location),
	)
	if err != nil {
		c.closeLocked()
		return nil, ehr.Unavailable("Healthie login error: " + err.Error())
	}
	if strings.Contains(location, "sign_in") {
		c.closeLocked()
		return nil, ehr.Unavailable("Healthie login failed: still on sign-in page")
	}

	c.logger.Info("successfully logged into Healthie")
	return pageCtx, nil
}

// SearchPatients implements ehr.Client by scraping the patient listing page.
func (c *BrowserClient) SearchPatients(ctx context.Context, keywords string) ([]ehr.Patient, error) {
	page, err := c.ensureSession(ctx)
	if err != nil {
		return nil, err
	}

	var rows []scrapedRow
	err = runWithTimeout(page, c.timings.operationTimeout,
		chromedp.Navigate(c.baseURL+"/all_patients"),
		chromedp.WaitVisible(selSearch, chromedp.ByQuery),
		chromedp.Clear(selSearch, chromedp.ByQuery),
		chromedp.SendKeys(selSearch, keywords, chromedp.ByQuery),
		chromedp.Sleep(c.timings.postNavDelay),
		chromedp.Evaluate(scrapeProfileRowsJS, &rows),
	)
	if err != nil {
		c.logger.Error("error searching for patient", "error", err)
		return nil, ehr.Unavailable("patient search failed: " + err.Error())
	}

	return parsePatientRows(rows), nil
}

// scrapedRow is one profile link plus the text of its nearest ancestor
// containing a parenthesized DOB.
type scrapedRow struct {
	Href string `json:"href"`
	Text string `json:"text"`
}

const scrapeProfileRowsJS = `(() => {
	const rows = [];
	for (const a of document.querySelectorAll('a[href*="/users/"]')) {
		if (!(a.textContent || '').includes('View Profile')) continue;
		let el = a.parentElement;
		while (el && !(el.textContent || '').includes('(')) el = el.parentElement;
		rows.push({ href: a.getAttribute('href') || '', text: el ? el.innerText : '' });
	}
	return rows;
})()`

// parsePatientRows maps scraped rows into patients. Rows whose link has no
// extractable id, or whose text does not parse into first+last name and DOB,
// are skipped silently rather than failing the whole search.
func parsePatientRows(rows []scrapedRow) []ehr.Patient {
	patients := make([]ehr.Patient, 0, len(rows))
	for _, row := range rows {
		patientID := extractIDFromURL(row.Href)
		if patientID == "" {
			continue
		}
		first, last, dob, ok := parseNameDOB(row.Text)
		if !ok {
			continue
		}
		d := dob
		patients = append(patients, ehr.Patient{
			PatientID:   patientID,
			FirstName:   first,
			LastName:    last,
			DateOfBirth: &d,
		})
	}
	return patients
}

// CreateAppointment implements ehr.Client by filling Healthie's add-
// appointment form on the patient's profile page.
func (c *BrowserClient) CreateAppointment(ctx context.Context, req ehr.AppointmentRequest) (*ehr.Appointment, error) {
	page, err := c.ensureSession(ctx)
	if err != nil {
		return nil, err
	}

	// Capture the createAppointment network response so the new appointment
	// id can be recovered after the form closes.
	capture := newAppointmentIDCapture()
	listenCtx, stopListening := context.WithCancel(page)
	defer stopListening()
	chromedp.ListenTarget(listenCtx, func(ev interface{}) {
		resp, ok := ev.(*network.EventResponseReceived)
		if !ok || !strings.Contains(resp.Response.URL, "/graphql") {
			return
		}
		requestID := resp.RequestID
		go func() {
			target := chromedp.FromContext(page)
			body, err := network.GetResponseBody(requestID).Do(cdp.WithExecutor(page, target.Target))
			if err != nil {
				return
			}
			if id := parseAppointmentIDFromBody(body); id != "" {
				capture.set(id)
			}
		}()
	})

	err = runWithTimeout(page, c.timings.operationTimeout,
		chromedp.Navigate(c.baseURL+"/users/"+req.PatientID),
		chromedp.Sleep(c.timings.postNavDelay),
		chromedp.WaitVisible(selAddApptBtn, chromedp.ByQuery),
		chromedp.Click(selAddApptBtn, chromedp.ByQuery),
		chromedp.Sleep(c.timings.modalOpenDelay),
	)
	if err != nil {
		return nil, &ehr.CreateError{Reason: err.Error(), PatientID: req.PatientID}
	}

	// Appointment type and contact type are react-selects; pick the first
	// option in each via keyboard navigation.
	if err := c.selectReactOption(page, "appointment_type_id", 0); err != nil {
		return nil, &ehr.CreateError{Reason: err.Error(), PatientID: req.PatientID}
	}
	if err := c.selectReactOption(page, "contact_type", 0); err != nil {
		return nil, &ehr.CreateError{Reason: err.Error(), PatientID: req.PatientID}
	}

	if err := c.fillDateAndTime(page, req.Date, req.Time); err != nil {
		return nil, &ehr.CreateError{Reason: err.Error(), PatientID: req.PatientID}
	}

	err = runWithTimeout(page, c.timings.operationTimeout,
		chromedp.WaitVisible(selModalSubmit, chromedp.ByQuery),
		chromedp.Click(selModalSubmit, chromedp.ByQuery),
	)
	if err != nil {
		return nil, &ehr.CreateError{Reason: err.Error(), PatientID: req.PatientID}
	}

	if err := c.awaitFormSubmitted(page, req.PatientID); err != nil {
		return nil, err
	}

	appointmentID := capture.get()
	if appointmentID == "" {
		c.logger.Warn("could not extract appointment ID after creation")
		appointmentID = ehr.UnknownAppointmentID
	}

	date := req.Date
	t := req.Time
	return &ehr.Appointment{
		AppointmentID: appointmentID,
		PatientID:     req.PatientID,
		Date:          &date,
		Time:          &t,
		Status:        ehr.StatusScheduled,
	}, nil
}

// awaitFormSubmitted polls until the appointment form either closes (the
// success signal) or shows a warning banner (the failure signal). Exhausting
// the poll budget with the form still open is a failure.
func (c *BrowserClient) awaitFormSubmitted(page context.Context, patientID string) error {
	closed, err := c.poll(func() (bool, error) {
		count, err := c.countElements(page, selApptModal)
		if err != nil {
			return false, err
		}
		if count == 0 {
			return true, nil
		}
		warning, err := c.readModalWarning(page)
		if err != nil {
			return false, err
		}
		if warning != "" {
			return false, &ehr.CreateError{Reason: warning, PatientID: patientID}
		}
		return false, nil
	})
	if err != nil {
		if ehr.IsEHRError(err) {
			return err
		}
		return &ehr.CreateError{Reason: err.Error(), PatientID: patientID}
	}
	if !closed {
		return &ehr.CreateError{
			Reason:    "appointment form did not close after submit",
			PatientID: patientID,
		}
	}
	return nil
}

// fillDateAndTime fills the date input with the long US form, dismisses the
// native date picker, then fills the time input, preferring the dropdown's
// matching option and falling back to character-by-character entry.
func (c *BrowserClient) fillDateAndTime(page context.Context, date ehr.Date, t ehr.TimeOfDay) error {
	err := runWithTimeout(page, c.timings.operationTimeout,
		chromedp.WaitVisible(selDate, chromedp.ByQuery),
		chromedp.Clear(selDate, chromedp.ByQuery),
		chromedp.SendKeys(selDate, dateToUSLong(date), chromedp.ByQuery),
		chromedp.Sleep(c.timings.selectOpenDelay),
		chromedp.KeyEvent(kb.Escape),
		chromedp.Sleep(c.timings.datePickerClose),
		chromedp.WaitVisible(selTime, chromedp.ByQuery),
		chromedp.Click(selTime, chromedp.ByQuery),
		chromedp.Sleep(c.timings.selectOpenDelay),
	)
	if err != nil {
		return err
	}

	time12h := timeTo12H(t)
	var optionClicked bool
	err = runWithTimeout(page, c.timings.operationTimeout,
		chromedp.Evaluate(clickTimeOptionJS(time12h), &optionClicked),
	)
	if err != nil {
		return err
	}
	if !optionClicked {
		actions := []chromedp.Action{
			chromedp.Clear(selTime, chromedp.ByQuery),
		}
		for _, r := range time12h {
			actions = append(actions,
				chromedp.SendKeys(selTime, string(r), chromedp.ByQuery),
				chromedp.Sleep(c.timings.typeKeyDelay),
			)
		}
		if err := runWithTimeout(page, c.timings.operationTimeout, actions...); err != nil {
			return err
		}
	}

	return runWithTimeout(page, c.timings.operationTimeout,
		chromedp.Sleep(c.timings.datePickerClose),
	)
}

// CancelAppointment implements ehr.Client. This transport supports only the
// by-(patient, date, time) variant: it scans the profile's appointment list
// for an entry showing the target date and time.
func (c *BrowserClient) CancelAppointment(ctx context.Context, target ehr.CancelTarget) (*ehr.Appointment, error) {
	if target.ByID() {
		return nil, &ehr.CancelError{
			Reason:        "cancel by appointment id is not supported by the browser transport",
			AppointmentID: target.AppointmentID,
		}
	}

	page, err := c.ensureSession(ctx)
	if err != nil {
		return nil, err
	}

	var itemTexts []string
	err = runWithTimeout(page, c.timings.operationTimeout,
		chromedp.Navigate(c.baseURL+"/users/"+target.PatientID),
		chromedp.Sleep(c.timings.postNavDelay),
		chromedp.WaitVisible(selApptPreviewItem, chromedp.ByQuery),
		chromedp.Evaluate(appointmentItemTextsJS, &itemTexts),
	)
	if err != nil {
		return nil, &ehr.CancelError{Reason: err.Error(), PatientID: target.PatientID}
	}

	targetDate := dateToShort(target.Date)
	targetTime := timeTo12H(target.Time)
	matched := -1
	for i, text := range itemTexts {
		if strings.Contains(text, targetDate) && strings.Contains(text, targetTime) {
			matched = i
			break
		}
	}
	if matched < 0 {
		return nil, &ehr.CancelError{
			Reason:    "could not find appointment in the UI",
			PatientID: target.PatientID,
		}
	}

	err = runWithTimeout(page, c.timings.operationTimeout,
		chromedp.Evaluate(clickNthAppointmentItemJS(matched), nil),
		chromedp.Sleep(c.timings.modalOpenDelay),
		chromedp.WaitVisible(selApptDetailPopup, chromedp.ByQuery),
		// The status react-select sits partly out of the viewport; a locator
		// click scrolls the modal out from under the cursor, so the dropdown
		// is opened by dispatching the mousedown directly.
		chromedp.Evaluate(openStatusDropdownJS, nil),
		chromedp.Sleep(c.timings.selectOpenDelay),
		chromedp.KeyEvent(kb.ArrowDown),
		chromedp.Sleep(c.timings.selectArrowDelay),
		chromedp.KeyEvent(kb.ArrowDown),
		chromedp.Sleep(c.timings.selectArrowDelay),
		chromedp.KeyEvent(kb.Enter),
		chromedp.Sleep(c.timings.selectOpenDelay),
		chromedp.Evaluate(clickDetailSaveJS, nil),
		chromedp.Sleep(c.timings.selectOpenDelay),
	)
	if err != nil {
		return nil, &ehr.CancelError{Reason: err.Error(), PatientID: target.PatientID}
	}

	return c.finishCancel(page, target)
}

// finishCancel polls for the detail popup to close after the save click.
// Exhausting the poll budget is NOT a failure: the save was clicked and the
// status change usually lands even when the modal animation hangs, so the
// cancellation is still reported successful (with a warning logged).
func (c *BrowserClient) finishCancel(page context.Context, target ehr.CancelTarget) (*ehr.Appointment, error) {
	closed, err := c.poll(func() (bool, error) {
		count, err := c.countElements(page, selApptDetailPopup)
		if err != nil {
			return false, err
		}
		return count == 0, nil
	})
	if err != nil {
		return nil, &ehr.CancelError{Reason: err.Error(), PatientID: target.PatientID}
	}
	if !closed {
		c.logger.Warn("appointment detail modal did not close after saving, " +
			"but the status change may have succeeded")
	}

	c.logger.Info("appointment cancelled via UI",
		"patient_id", target.PatientID,
		"date", target.Date.String(),
		"time", target.Time.String(),
	)
	date := target.Date
	t := target.Time
	return &ehr.Appointment{
		AppointmentID: ehr.UnknownAppointmentID,
		PatientID:     target.PatientID,
		Date:          &date,
		Time:          &t,
		Status:        ehr.StatusCancelled,
	}, nil
}

// HealthCheck implements ehr.Client by navigating to the base URL through an
// authenticated session and reporting the document response status.
func (c *BrowserClient) HealthCheck(ctx context.Context) bool {
	page, err := c.ensureSession(ctx)
	if err != nil {
		c.logger.Warn("Healthie health check failed", "error", err)
		return false
	}

	var mu sync.Mutex
	var status int64
	listenCtx, stopListening := context.WithCancel(page)
	defer stopListening()
	chromedp.ListenTarget(listenCtx, func(ev interface{}) {
		resp, ok := ev.(*network.EventResponseReceived)
		if !ok || resp.Type != network.ResourceTypeDocument {
			return
		}
		mu.Lock()
		if status == 0 {
			status = resp.Response.Status
		}
		mu.Unlock()
	})

	if err := runWithTimeout(page, c.timings.healthTimeout, chromedp.Navigate(c.baseURL)); err != nil {
		c.logger.Warn("Healthie health check failed", "error", err)
		return false
	}

	mu.Lock()
	defer mu.Unlock()
	return healthyStatus(status)
}

// healthyStatus accepts 2xx only; a redirect on the landing page usually
// means the session bounced back to sign-in.
func healthyStatus(status int64) bool {
	return status >= 200 && status < 300
}

// Close shuts down the browser and the automation driver if open. Safe to
// call repeatedly.
func (c *BrowserClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeLocked()
	return nil
}

func (c *BrowserClient) closeLocked() {
	if c.browserCancel != nil {
		c.browserCancel()
		c.browserCancel = nil
		c.pageCtx = nil
		c.logger.Info("Healthie browser session closed")
	}
	if c.allocCancel != nil {
		c.allocCancel()
		c.allocCancel = nil
	}
}

// selectReactOption opens a react-select input and picks an option via
// keyboard navigation (optionIndex 0 is the first option).
func (c *BrowserClient) selectReactOption(page context.Context, inputID string, optionIndex int) error {
	actions := []chromedp.Action{
		chromedp.Click("#"+inputID, chromedp.ByQuery),
		chromedp.Sleep(c.timings.selectOpenDelay),
	}
	for i := 0; i <= optionIndex; i++ {
		actions = append(actions,
			chromedp.KeyEvent(kb.ArrowDown),
			chromedp.Sleep(c.timings.selectArrowDelay),
		)
	}
	actions = append(actions,
		chromedp.KeyEvent(kb.Enter),
		chromedp.Sleep(c.timings.selectOpenDelay),
	)
	return runWithTimeout(page, c.timings.operationTimeout, actions...)
}

// poll runs check every pollInterval up to maxPollAttempts. It reports
// whether the check signalled completion within the budget.
func (c *BrowserClient) poll(check func() (bool, error)) (bool, error) {
	for i := 0; i < c.timings.maxPollAttempts; i++ {
		time.Sleep(c.timings.pollInterval)
		done, err := check()
		if err != nil {
			return false, err
		}
		if done {
			return true, nil
		}
	}
	return false, nil
}

func runWithTimeout(parent context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()
	return chromedp.Run(ctx, actions...)
}

// clickButtonByText clicks the first button whose trimmed text equals text.
func clickButtonByText(text string) chromedp.Action {
	js := fmt.Sprintf(`(() => {
		for (const btn of document.querySelectorAll('button')) {
			if ((btn.textContent || '').trim() === %q) { btn.click(); return true; }
		}
		return false;
	})()`, text)
	return chromedp.ActionFunc(func(ctx context.Context) error {
		var clicked bool
		if err := chromedp.Evaluate(js, &clicked).Do(ctx); err != nil {
			return err
		}
		if !clicked {
			return fmt.Errorf("healthie: no button with text %q", text)
		}
		return nil
	})
}

func elementCountJS(sel string) string {
	return fmt.Sprintf("document.querySelectorAll(%q).length", sel)
}

var modalWarningJS = fmt.Sprintf(`(() => {
	const modal = document.querySelector(%q);
	if (!modal) return '';
	const warn = modal.querySelector('[class*="warning"], [class*="alert"], [class*="error"]');
	return warn ? (warn.innerText || '').trim() : '';
})()`, selApptModal)

func clickTimeOptionJS(label string) string {
	return fmt.Sprintf(`(() => {
	const modal = document.querySelector(%q);
	if (!modal) return false;
	for (const li of modal.querySelectorAll('li')) {
		if (!(li.className || '').includes('time-list')) continue;
		if ((li.innerText || '').trim() === %q) { li.click(); return true; }
	}
	return false;
})()`, selApptModal, label)
}

const appointmentItemTextsJS = `Array.from(` +
	`document.querySelectorAll('li[data-testid="appointment-preview-item"]')` +
	`).map(li => li.innerText || '')`

func clickNthAppointmentItemJS(index int) string {
	return fmt.Sprintf(`(() => {
	const items = document.querySelectorAll(%q);
	if (items[%d]) items[%d].click();
})()`, selApptPreviewItem, index, index)
}

const openStatusDropdownJS = `(() => {
	const input = document.querySelector('#pm_status');
	if (!input) return false;
	input.focus();
	input.dispatchEvent(new MouseEvent('mousedown', { bubbles: true }));
	return true;
})()`

const clickDetailSaveJS = `(() => {
	const popup = document.querySelector('[data-testid="appointment-detail-popup"]');
	if (!popup) return false;
	const btn = popup.querySelector('[data-testid="primaryButton"]');
	if (!btn) return false;
	btn.click();
	return true;
})()`

// appointmentIDCapture holds the first appointment id seen on a captured
// createAppointment response.
type appointmentIDCapture struct {
	mu sync.Mutex
	id string
}

func newAppointmentIDCapture() *appointmentIDCapture {
	return &appointmentIDCapture{}
}

func (a *appointmentIDCapture) set(id string) {
	a.mu.Lock()
	if a.id == "" {
		a.id = id
	}
	a.mu.Unlock()
}

func (a *appointmentIDCapture) get() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.id
}

// parseAppointmentIDFromBody extracts the appointment id from a captured
// createAppointment GraphQL response body, or returns "".
func parseAppointmentIDFromBody(body []byte) string {
	var payload struct {
		Data struct {
			CreateAppointment struct {
				Appointment struct {
					ID flexID `json:"id"`
				} `json:"appointment"`
			} `json:"createAppointment"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	return string(payload.Data.CreateAppointment.Appointment.ID)
}
