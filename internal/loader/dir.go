package loader

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/unitesync/attribution-engine/internal/domain"
	"github.com/unitesync/attribution-engine/internal/pkg/logger"
)

// Export file names produced by the upstream download jobs.
const (
	FileContacts       = "contacts.json"
	FileClients        = "clients.json"
	FileLeadsContacted = "leads_contacted.json"
	FileLeadsReplied   = "leads_replied.json"
	FileAudits         = "audits.json"
	FileThreads        = "threads.json"
	FileStatsLegacyA   = "stats_legacy_a.json"
	FileStatsLegacyB   = "stats_legacy_b.json"
	FileStatsCurrent   = "stats_current.json"
	FileStatsPositive  = "stats_positive_reply.json"
)

// FromDir loads every source collection from a directory of JSON
// exports. Missing files are tolerated (the collection is simply empty)
// so a run can proceed with partial sources; malformed files are not.
func FromDir(dir string) (Sources, error) {
	var src Sources

	read := func(name string) ([]byte, bool, error) {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if errors.Is(err, fs.ErrNotExist) {
			logger.Warn("source file missing, continuing without it", "file", name)
			return nil, false, nil
		}
		if err != nil {
			return nil, false, fmt.Errorf("reading %s: %w", name, err)
		}
		return data, true, nil
	}

	if data, ok, err := read(FileContacts); err != nil {
		return src, err
	} else if ok {
		if src.Contacts, err = Contacts(data); err != nil {
			return src, err
		}
	}

	if data, ok, err := read(FileClients); err != nil {
		return src, err
	} else if ok {
		if src.Clients, err = Clients(data); err != nil {
			return src, err
		}
	}

	for _, feed := range []struct {
		file   string
		status domain.LeadStatus
	}{
		{FileLeadsContacted, domain.LeadStatusContacted},
		{FileLeadsReplied, domain.LeadStatusReplied},
	} {
		data, ok, err := read(feed.file)
		if err != nil {
			return src, err
		}
		if !ok {
			continue
		}
		leads, err := Leads(data, feed.status)
		if err != nil {
			return src, err
		}
		src.Leads = append(src.Leads, leads...)
	}

	if data, ok, err := read(FileAudits); err != nil {
		return src, err
	} else if ok {
		if src.Audits, err = Audits(data); err != nil {
			return src, err
		}
	}

	if data, ok, err := read(FileThreads); err != nil {
		return src, err
	} else if ok {
		if src.Threads, err = Threads(data); err != nil {
			return src, err
		}
	}

	for _, seq := range []struct {
		file string
		kind domain.SequenceKind
	}{
		{FileStatsLegacyA, domain.SequenceLegacyA},
		{FileStatsLegacyB, domain.SequenceLegacyB},
		{FileStatsCurrent, domain.SequenceCurrent},
		{FileStatsPositive, domain.SequencePositiveReply},
	} {
		data, ok, err := read(seq.file)
		if err != nil {
			return src, err
		}
		if !ok {
			continue
		}
		stats, err := SequenceStats(data, seq.kind)
		if err != nil {
			return src, err
		}
		src.Stats = append(src.Stats, stats...)
	}

	logger.Info("sources loaded",
		"contacts", len(src.Contacts),
		"clients", len(src.Clients),
		"leads", len(src.Leads),
		"audits", len(src.Audits),
		"threads", len(src.Threads),
		"sequence_stats", len(src.Stats),
	)
	return src, nil
}
