// Package importer seeds the store from exported league CSV files. Each
// subdirectory of the data dir holds one league's competitors.csv,
// rounds.csv, submissions.csv and votes.csv; the league id is the
// subdirectory's position in sorted order, starting at 1.
package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jpvargas/leaguedash/internal/domain"
	"github.com/jpvargas/leaguedash/internal/logger"
	"github.com/jpvargas/leaguedash/internal/store"
)

type Importer struct {
	db      *store.DB
	dataDir string
	log     *logger.Logger
}

func New(db *store.DB, dataDir string, log *logger.Logger) *Importer {
	if log == nil {
		log = logger.Default()
	}
	return &Importer{db: db, dataDir: dataDir, log: log.WithComponent("importer")}
}

// Summary reports what one import wrote.
type Summary struct {
	Leagues     int `json:"leagues"`
	Competitors int `json:"competitors"`
	Rounds      int `json:"rounds"`
	Submissions int `json:"submissions"`
	Votes       int `json:"votes"`
	Skipped     int `json:"skipped"`
}

// Run replaces all imported data with the CSV contents. Fetched track and
// artist metadata survives; only the league-sourced tables are cleared.
func (im *Importer) Run() (*Summary, error) {
	entries, err := os.ReadDir(im.dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read data dir %s: %w", im.dataDir, err)
	}

	var leagueDirs []string
	for _, e := range entries {
		if e.IsDir() {
			leagueDirs = append(leagueDirs, e.Name())
		}
	}
	if len(leagueDirs) == 0 {
		return nil, fmt.Errorf("no league directories under %s", im.dataDir)
	}
	sort.Strings(leagueDirs)

	if err := im.db.ClearImportedData(); err != nil {
		return nil, err
	}

	summary := &Summary{}
	for i, dir := range leagueDirs {
		leagueID := int64(i + 1)
		if err := im.importLeague(leagueID, dir, summary); err != nil {
			return summary, fmt.Errorf("failed to import league %s: %w", dir, err)
		}
	}

	im.log.Info("import complete",
		"leagues", summary.Leagues,
		"competitors", summary.Competitors,
		"rounds", summary.Rounds,
		"submissions", summary.Submissions,
		"votes", summary.Votes,
		"skipped", summary.Skipped)
	return summary, nil
}

func (im *Importer) importLeague(leagueID int64, dir string, summary *Summary) error {
	name := leagueNameFromDir(dir)
	log := im.log.WithLeague(leagueID, name)

	if err := im.db.UpsertLeague(&domain.League{ID: leagueID, Name: name}); err != nil {
		return err
	}
	summary.Leagues++

	base := filepath.Join(im.dataDir, dir)

	competitors, err := readCSV(filepath.Join(base, "competitors.csv"))
	if err != nil {
		return err
	}
	for _, row := range competitors {
		if row["ID"] == "" {
			summary.Skipped++
			continue
		}
		competitor := &domain.Competitor{ID: row["ID"], Name: row["Name"]}
		if err := im.db.UpsertCompetitor(competitor, leagueID); err != nil {
			return err
		}
		summary.Competitors++
	}

	rounds, err := readCSV(filepath.Join(base, "rounds.csv"))
	if err != nil {
		return err
	}
	knownRounds := make(map[string]bool)
	for _, row := range rounds {
		if row["ID"] == "" {
			summary.Skipped++
			continue
		}
		round := &domain.Round{
			ID:          row["ID"],
			LeagueID:    leagueID,
			Name:        row["Name"],
			Description: row["Description"],
			PlaylistURL: row["Playlist URL"],
			Created:     parseTime(row["Created"]),
		}
		if err := im.db.UpsertRound(round); err != nil {
			return err
		}
		knownRounds[round.ID] = true
		summary.Rounds++
	}

	submissions, err := readCSV(filepath.Join(base, "submissions.csv"))
	if err != nil {
		return err
	}
	for _, row := range submissions {
		roundID := row["Round ID"]
		if row["Spotify URI"] == "" || !knownRounds[roundID] {
			log.Warn("skipping submission", "uri", row["Spotify URI"], "round", roundID)
			summary.Skipped++
			continue
		}
		var artists domain.StringSlice
		if a := row["Artist(s)"]; a != "" {
			artists = domain.StringSlice{a}
		}
		submission := &domain.Submission{
			RoundID:     roundID,
			LeagueID:    leagueID,
			SubmitterID: row["Submitter ID"],
			SpotifyURI:  row["Spotify URI"],
			Title:       row["Title"],
			Artists:     artists,
			Album:       row["Album"],
			Comment:     row["Comment"],
			Created:     parseTime(row["Created"]),
		}
		if err := im.db.InsertSubmission(submission); err != nil {
			return err
		}
		summary.Submissions++
	}

	votes, err := readCSV(filepath.Join(base, "votes.csv"))
	if err != nil {
		return err
	}
	for _, row := range votes {
		roundID := row["Round ID"]
		if row["Spotify URI"] == "" || !knownRounds[roundID] {
			log.Warn("skipping vote", "uri", row["Spotify URI"], "round", roundID)
			summary.Skipped++
			continue
		}
		points, _ := strconv.Atoi(row["Points Assigned"])
		if points < 0 {
			points = 0
		}
		vote := &domain.Vote{
			ID:         uuid.NewString(),
			RoundID:    roundID,
			LeagueID:   leagueID,
			VoterID:    row["Voter ID"],
			SpotifyURI: row["Spotify URI"],
			Points:     points,
			Comment:    row["Comment"],
		}
		if err := im.db.InsertVote(vote); err != nil {
			return err
		}
		summary.Votes++
	}

	log.Info("imported league",
		"competitors", len(competitors),
		"rounds", len(rounds),
		"submissions", len(submissions),
		"votes", len(votes))
	return nil
}

// readCSV loads a header-keyed CSV file. A missing file is not an error;
// exports do not always include every table.
func readCSV(path string) ([]map[string]string, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck // read-only file

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header of %s: %w", path, err)
	}

	var rows []map[string]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		row := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(record) {
				row[strings.TrimSpace(col)] = strings.TrimSpace(record[i])
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseTime(value string) time.Time {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Time{}
}

// leagueNameFromDir turns a directory name like "league-1" or
// "summer_mixtape" into a display name.
func leagueNameFromDir(dir string) string {
	cleaned := strings.NewReplacer("-", " ", "_", " ").Replace(dir)
	words := strings.Fields(cleaned)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
