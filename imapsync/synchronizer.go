package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"imapsync/imap"
)

// SyncOptions gathers everything the Synchronizer needs for one run,
// per §6's invocation surface.
type SyncOptions struct {
	Server         string
	Port           int
	ConnectTimeout time.Duration
	UseTLS         bool
	CAFile         string
	CADir          string

	Credentials Credentials
	Mailbox     string
	OutDir      string
	IndexPath   string

	NewOnly     bool
	HeadersOnly bool

	Log *logrus.Logger
}

// SyncResult reports what a run actually did, for the CLI's stdout
// summary (§6).
type SyncResult struct {
	Downloaded int
	Failed     int
}

// Sync drives the full SELECT → UIDVALIDITY reconciliation → candidate
// UID set → FETCH → persist → LOGOUT workflow of §4.5, in order,
// failing fast on any connection-setup or protocol error and isolating
// persistence failures per UID (§7's propagation policy).
func Sync(opts SyncOptions) (SyncResult, error) {
	log := opts.Log
	if log == nil {
		log = logrus.New()
		log.SetLevel(logrus.WarnLevel)
	}

	log.WithFields(logrus.Fields{"server": opts.Server, "port": opts.Port}).Info("connecting")
	transport, err := imap.Dial(imap.TransportOptions{
		Server:         opts.Server,
		Port:           opts.Port,
		ConnectTimeout: opts.ConnectTimeout,
		UseTLS:         opts.UseTLS,
		CAFile:         opts.CAFile,
		CADir:          opts.CADir,
	})
	if err != nil {
		return SyncResult{}, err
	}
	defer transport.Close()

	netmon := transport.EnableNetmon()
	stopTicker := make(chan struct{})
	tickerDone := make(chan struct{})
	go func() {
		defer close(tickerDone)
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				netmon.Tick()
				if bw := netmon.Bandwidth(); bw > 0 {
					log.WithField("bytes_per_sec", bw).Debug("download progress")
				}
			case <-stopTicker:
				return
			}
		}
	}()
	defer func() {
		close(stopTicker)
		<-tickerDone
	}()

	dialog := imap.NewDialog(transport)
	dialog.Log = log

	if _, err := dialog.Greeting(); err != nil {
		return SyncResult{}, err
	}

	log.Info("logging in")
	loginResp, err := dialog.Send(fmt.Sprintf("LOGIN %s %s", quoteArg(opts.Credentials.Username), quoteArg(opts.Credentials.Password)))
	if err != nil {
		return SyncResult{}, err
	}
	loginStatus, err := imap.TaggedStatus(loginResp)
	if err != nil {
		return SyncResult{}, err
	}
	if loginStatus.Status != "OK" {
		return SyncResult{}, &imap.Error{Kind: imap.KindAuth, Message: "LOGIN failed: " + loginStatus.Text}
	}

	log.WithField("mailbox", opts.Mailbox).Info("selecting mailbox")
	selectResp, err := dialog.Send("SELECT " + quoteArg(opts.Mailbox))
	if err != nil {
		return SyncResult{}, err
	}
	uidValidity, err := imap.ExtractUIDValidity(selectResp)
	if err != nil {
		return SyncResult{}, err
	}

	store, err := OpenStore(opts.OutDir, transport.Host(), opts.Mailbox, opts.IndexPath)
	if err != nil {
		return SyncResult{}, err
	}
	defer store.Close()

	if marker, ok, err := store.ReadMarker(); err != nil {
		return SyncResult{}, err
	} else if ok && marker != uidValidity {
		log.WithFields(logrus.Fields{"old": marker, "new": uidValidity}).Warn("UIDVALIDITY changed, invalidating local inventory")
		if err := store.Invalidate(); err != nil {
			return SyncResult{}, err
		}
	}
	if err := store.WriteMarker(uidValidity); err != nil {
		return SyncResult{}, err
	}

	searchCmd := "UID SEARCH ALL"
	if opts.NewOnly {
		searchCmd = "UID SEARCH NEW"
	}
	searchResp, err := dialog.Send(searchCmd)
	if err != nil {
		return SyncResult{}, err
	}
	uids, err := imap.ParseSearchUIDs(searchResp)
	if err != nil {
		return SyncResult{}, err
	}

	if len(uids) == 0 {
		log.Info("no new messages found")
		if _, err := dialog.Send("LOGOUT"); err != nil {
			return SyncResult{}, err
		}
		return SyncResult{}, nil
	}

	inv, err := store.Inventory()
	if err != nil {
		return SyncResult{}, err
	}
	toFetch := selectFetchSet(uids, inv, opts.HeadersOnly)

	result := SyncResult{}
	if len(toFetch) > 0 {
		fetchField := "(UID BODY[])"
		if opts.HeadersOnly {
			fetchField = "(UID BODY.PEEK[HEADER])"
		}
		fetchCmd := fmt.Sprintf("UID FETCH %s %s", joinUIDs(toFetch), fetchField)

		fetchResp, err := dialog.Send(fetchCmd)
		if err != nil {
			return SyncResult{}, err
		}
		fetched, err := imap.ParseFetchResponse(fetchResp)
		if err != nil {
			return SyncResult{}, err
		}

		for _, f := range fetched {
			if err := store.WriteMessage(f.UID, f.Message, opts.HeadersOnly); err != nil {
				log.WithError(err).WithField("uid", f.UID).Error("failed to persist message")
				result.Failed++
				continue
			}
			result.Downloaded++
		}
	}

	log.Info("logging out")
	if _, err := dialog.Send("LOGOUT"); err != nil {
		return result, err
	}

	return result, nil
}

// selectFetchSet computes which of the candidate UIDs actually need a
// FETCH: a UID already present in Full never needs refetching; one
// present only as HeadersOnly needs refetching only when the caller
// now wants a full body (an upgrade), not when headers were asked for
// again.
func selectFetchSet(candidates []uint32, inv Inventory, wantHeadersOnly bool) []uint32 {
	var out []uint32
	for _, uid := range candidates {
		if inv.Full[uid] {
			continue
		}
		if inv.HeadersOnly[uid] && wantHeadersOnly {
			continue
		}
		out = append(out, uid)
	}
	return out
}

func joinUIDs(uids []uint32) string {
	parts := make([]string, len(uids))
	for i, uid := range uids {
		parts[i] = fmt.Sprintf("%d", uid)
	}
	return strings.Join(parts, ",")
}

// quoteArg wraps an IMAP astring argument in double quotes. LOGIN and
// SELECT arguments in this client are never allowed to contain CR/LF;
// a value that does is a caller/credentials bug, not a wire-level
// concern this package works around.
func quoteArg(s string) string {
	return `"` + s + `"`
}
