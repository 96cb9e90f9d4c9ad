// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"bytes"
	"database/sql"
	"fmt"
	"sort"
	"strconv"

	"github.com/zeebo/xxh3"

	"github.com/danielhkuo/quickly-assign/matching"
	"github.com/danielhkuo/quickly-assign/models"
)

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	QueryRow(query string, args ...any) *sql.Row
	Query(query string, args ...any) (*sql.Rows, error)
}

const allocationColumns = `
	id, title, description, creator_name, method, status, max_score, max_unwilling,
	share_slug, closed_at, final_snapshot_id, created_at`

func scanAllocation(row *sql.Row) (models.Allocation, error) {
	var a models.Allocation
	err := row.Scan(
		&a.ID, &a.Title, &a.Description, &a.CreatorName, &a.Method, &a.Status,
		&a.MaxScore, &a.MaxUnwilling, &a.ShareSlug, &a.ClosedAt, &a.FinalSnapshotID, &a.CreatedAt,
	)
	return a, err
}

// allocationByID returns sql.ErrNoRows when the allocation does not exist.
func allocationByID(q queryer, id string) (models.Allocation, error) {
	return scanAllocation(q.QueryRow(`SELECT `+allocationColumns+` FROM allocation WHERE id = $1`, id))
}

// allocationBySlug returns sql.ErrNoRows when no published allocation has
// the slug.
func allocationBySlug(q queryer, slug string) (models.Allocation, error) {
	return scanAllocation(q.QueryRow(`SELECT `+allocationColumns+` FROM allocation WHERE share_slug = $1`, slug))
}

// listChoices returns the choices of an allocation ordered by ID.
func listChoices(q queryer, allocationID string) ([]models.Choice, error) {
	rows, err := q.Query(`
		SELECT id, allocation_id, label, min_size, max_size, optional
		FROM choice
		WHERE allocation_id = $1
		ORDER BY id
	`, allocationID)
	if err != nil {
		return nil, fmt.Errorf("failed to query choices: %w", err)
	}
	defer rows.Close()

	choices := []models.Choice{}
	for rows.Next() {
		var c models.Choice
		if err := rows.Scan(&c.ID, &c.AllocationID, &c.Label, &c.MinSize, &c.MaxSize, &c.Optional); err != nil {
			return nil, fmt.Errorf("failed to scan choice: %w", err)
		}
		choices = append(choices, c)
	}
	return choices, rows.Err()
}

// participantByToken resolves a participant token within one allocation.
func participantByToken(q queryer, allocationID, token string) (models.Participant, error) {
	var p models.Participant
	err := q.QueryRow(`
		SELECT id, allocation_id, name, token, joined_at
		FROM participant
		WHERE allocation_id = $1 AND token = $2
	`, allocationID, token).Scan(&p.ID, &p.AllocationID, &p.Name, &p.Token, &p.JoinedAt)
	return p, err
}

// participantNames maps participant ID to display name.
func participantNames(q queryer, allocationID string) (map[string]string, error) {
	rows, err := q.Query(`SELECT id, name FROM participant WHERE allocation_id = $1`, allocationID)
	if err != nil {
		return nil, fmt.Errorf("failed to query participants: %w", err)
	}
	defer rows.Close()

	names := make(map[string]string)
	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		names[id] = name
	}
	return names, rows.Err()
}

// countParticipants returns how many participants joined and how many of
// them have submitted ratings.
func countParticipants(q queryer, allocationID string) (joined, rated int, err error) {
	err = q.QueryRow(`
		SELECT COUNT(*),
		       COUNT(CASE WHEN EXISTS (SELECT 1 FROM rating r WHERE r.participant_id = p.id) THEN 1 END)
		FROM participant p
		WHERE p.allocation_id = $1
	`, allocationID).Scan(&joined, &rated)
	return joined, rated, err
}

// ratingsOf returns one participant's scores keyed by choice ID.
func ratingsOf(q queryer, participantID string) (map[string]int, error) {
	rows, err := q.Query(`SELECT choice_id, score FROM rating WHERE participant_id = $1`, participantID)
	if err != nil {
		return nil, fmt.Errorf("failed to query ratings: %w", err)
	}
	defer rows.Close()

	scores := make(map[string]int)
	for rows.Next() {
		var choiceID string
		var score int
		if err := rows.Scan(&choiceID, &score); err != nil {
			return nil, fmt.Errorf("failed to scan rating: %w", err)
		}
		scores[choiceID] = score
	}
	return scores, rows.Err()
}

// LoadProblem reads an allocation's choices and ratings into a solver input.
// Only participants who submitted ratings take part; someone who joined and
// never rated has nothing to be matched on.
func LoadProblem(q queryer, allocationID string) (matching.Problem, error) {
	choices, err := listChoices(q, allocationID)
	if err != nil {
		return matching.Problem{}, err
	}

	rows, err := q.Query(`
		SELECT r.participant_id, r.choice_id, r.score
		FROM rating r
		JOIN participant p ON p.id = r.participant_id
		WHERE p.allocation_id = $1
		ORDER BY r.participant_id, r.choice_id
	`, allocationID)
	if err != nil {
		return matching.Problem{}, fmt.Errorf("failed to query ratings: %w", err)
	}
	defer rows.Close()

	var p matching.Problem
	seen := make(map[string]bool)
	for rows.Next() {
		var r matching.Rating
		if err := rows.Scan(&r.ParticipantID, &r.ChoiceID, &r.Score); err != nil {
			return matching.Problem{}, fmt.Errorf("failed to scan rating: %w", err)
		}
		p.Ratings = append(p.Ratings, r)
		if !seen[r.ParticipantID] {
			seen[r.ParticipantID] = true
			p.Participants = append(p.Participants, r.ParticipantID)
		}
	}
	if err := rows.Err(); err != nil {
		return matching.Problem{}, fmt.Errorf("failed to read ratings: %w", err)
	}

	for _, c := range choices {
		p.Choices = append(p.Choices, matching.ChoiceSpec{
			ID:       c.ID,
			MinSize:  c.MinSize,
			MaxSize:  c.MaxSize,
			Optional: c.Optional,
		})
	}
	return p, nil
}

// InputsHash fingerprints a problem independent of input order, so a stored
// snapshot can be checked against the data it was computed from.
func InputsHash(p matching.Problem) string {
	choices := append([]matching.ChoiceSpec(nil), p.Choices...)
	sort.Slice(choices, func(i, j int) bool { return choices[i].ID < choices[j].ID })

	participants := append([]string(nil), p.Participants...)
	sort.Strings(participants)

	ratings := append([]matching.Rating(nil), p.Ratings...)
	sort.Slice(ratings, func(i, j int) bool {
		if ratings[i].ParticipantID != ratings[j].ParticipantID {
			return ratings[i].ParticipantID < ratings[j].ParticipantID
		}
		return ratings[i].ChoiceID < ratings[j].ChoiceID
	})

	var buf bytes.Buffer
	field := func(s string) {
		buf.WriteString(s)
		buf.WriteByte(0)
	}

	field("choices")
	for _, c := range choices {
		field(c.ID)
		field(strconv.Itoa(c.MinSize))
		field(strconv.Itoa(c.MaxSize))
		field(strconv.FormatBool(c.Optional))
	}
	field("participants")
	for _, id := range participants {
		field(id)
	}
	field("ratings")
	for _, r := range ratings {
		field(r.ParticipantID)
		field(r.ChoiceID)
		field(strconv.Itoa(r.Score))
	}

	sum := xxh3.Hash128(buf.Bytes())
	return fmt.Sprintf("%016x%016x", sum.Hi, sum.Lo)
}
