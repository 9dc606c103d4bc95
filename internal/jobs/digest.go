// internal/jobs/digest.go
package jobs

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"collections-dashboard/internal/common/logger"
	"collections-dashboard/internal/fetcher"
	"collections-dashboard/internal/filters"
	"collections-dashboard/internal/models"
	"collections-dashboard/internal/notify"
)

const PtpDigestJobName = "ptp-digest"

// UnassignedRM groups applications with no RM on record.
const UnassignedRM = "Unassigned"

type ApplicationLister interface {
	ListApplications(ctx context.Context, month string) ([]models.Application, error)
}

type Notifier interface {
	Email(ctx context.Context, to []string, msg notify.Message) (bool, error)
	Publish(ctx context.Context, topicARN string, msg notify.Message) (bool, error)
}

type RMCount struct {
	RM      string `json:"rm"`
	Today   int    `json:"today"`
	Overdue int    `json:"overdue"`
}

type Digest struct {
	EmiMonth string    `json:"emi_month"`
	Date     time.Time `json:"date"`
	Today    int       `json:"today"`
	Overdue  int       `json:"overdue"`
	RMs      []RMCount `json:"rms"`
}

func (d *Digest) Empty() bool {
	return d.Today == 0 && d.Overdue == 0
}

// BuildDigest counts today's and overdue PTPs per RM. Rows are ordered by
// overdue, then today, then RM name.
func BuildDigest(apps []models.Application, month string, now time.Time) *Digest {
	d := &Digest{EmiMonth: month, Date: now}
	byRM := map[string]*RMCount{}
	for _, app := range apps {
		bucket := filters.CategorizePtpDate(app.PtpDate, now)
		if bucket != filters.PtpToday && bucket != filters.PtpOverdue {
			continue
		}
		rm := rmFor(app)
		c, ok := byRM[rm]
		if !ok {
			c = &RMCount{RM: rm}
			byRM[rm] = c
		}
		if bucket == filters.PtpToday {
			c.Today++
			d.Today++
		} else {
			c.Overdue++
			d.Overdue++
		}
	}

	d.RMs = make([]RMCount, 0, len(byRM))
	for _, c := range byRM {
		d.RMs = append(d.RMs, *c)
	}
	sort.Slice(d.RMs, func(i, j int) bool {
		a, b := d.RMs[i], d.RMs[j]
		if a.Overdue != b.Overdue {
			return a.Overdue > b.Overdue
		}
		if a.Today != b.Today {
			return a.Today > b.Today
		}
		return a.RM < b.RM
	})
	return d
}

func rmFor(app models.Application) string {
	if rm := strings.TrimSpace(app.CollectionRM); rm != "" {
		return rm
	}
	if rm := strings.TrimSpace(app.RMName); rm != "" {
		return rm
	}
	return UnassignedRM
}

func (d *Digest) Subject() string {
	return fmt.Sprintf("PTP digest %s: %d today, %d overdue", d.Date.Format("02 Jan 2006"), d.Today, d.Overdue)
}

// Text is the plain-text body; the first line doubles as the SMS message.
func (d *Digest) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s)\n", d.Subject(), d.EmiMonth)
	for _, rm := range d.RMs {
		fmt.Fprintf(&b, "%s: %d today, %d overdue\n", rm.RM, rm.Today, rm.Overdue)
	}
	return b.String()
}

type PtpDigestConfig struct {
	Recipients  []string
	SMSTopicARN string
	Location    *time.Location
}

type PtpDigestJob struct {
	config   *PtpDigestConfig
	apps     ApplicationLister
	loader   fetcher.Loader
	notifier Notifier
	logger   logger.Logger
	now      func() time.Time
}

func NewPtpDigestJob(config *PtpDigestConfig, apps ApplicationLister, loader fetcher.Loader, notifier Notifier, log logger.Logger) *PtpDigestJob {
	if config.Location == nil {
		config.Location = time.UTC
	}
	return &PtpDigestJob{
		config:   config,
		apps:     apps,
		loader:   loader,
		notifier: notifier,
		logger:   log.WithFields(map[string]interface{}{"job": PtpDigestJobName}),
		now:      time.Now,
	}
}

func (j *PtpDigestJob) Name() string { return PtpDigestJobName }

// Build lists the current month's applications, enriches them and counts PTPs.
func (j *PtpDigestJob) Build(ctx context.Context) (*Digest, error) {
	now := j.now().In(j.config.Location)
	month := filters.CurrentEmiMonth(now)

	apps, err := j.apps.ListApplications(ctx, month)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	if j.loader != nil {
		ids := make([]string, len(apps))
		for i, app := range apps {
			ids[i] = app.ID
		}
		batch := j.loader.Fetch(ctx, ids, month)
		if batch.HasFailures() {
			j.logger.Warn("digest built with degraded lookups", map[string]interface{}{"failed": batch.Failed})
		}
		apps = batch.Apply(apps)
	}
	return BuildDigest(apps, month, now), nil
}

// Run builds the digest and sends it. Each channel is attempted even when
// the other fails.
func (j *PtpDigestJob) Run(ctx context.Context) error {
	d, err := j.Build(ctx)
	if err != nil {
		return err
	}
	if d.Empty() {
		j.logger.Info("no PTPs due, digest skipped", map[string]interface{}{"emiMonth": d.EmiMonth})
		return nil
	}

	msg := notify.Message{Subject: d.Subject(), Text: d.Text()}
	var errs []error
	if _, err := j.notifier.Email(ctx, j.config.Recipients, msg); err != nil {
		j.logger.Warn("digest email failed", map[string]interface{}{"error": err.Error()})
		errs = append(errs, err)
	}
	if _, err := j.notifier.Publish(ctx, j.config.SMSTopicARN, notify.Message{Subject: "PTP digest", Text: d.Subject()}); err != nil {
		j.logger.Warn("digest publish failed", map[string]interface{}{"error": err.Error()})
		errs = append(errs, err)
	}

	j.logger.Info("digest processed", map[string]interface{}{
		"emiMonth": d.EmiMonth,
		"today":    d.Today,
		"overdue":  d.Overdue,
		"rms":      len(d.RMs),
	})
	return errors.Join(errs...)
}
