package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/thryvyng/club-api/internal/invitation"
	"github.com/thryvyng/club-api/internal/pricing"
)

// InvitationRepo implements invitation.Querier on Postgres.
type InvitationRepo struct {
	Pool *pgxpool.Pool
}

// GetInvitation assembles the wizard snapshot for a token: placement, player,
// team, club, program settings, packages with plans, questions and volunteer
// positions. The snapshot is read in one shot and treated as immutable by the
// caller.
func (r InvitationRepo) GetInvitation(ctx context.Context, token string) (invitation.Snapshot, error) {
	var (
		snap      invitation.Snapshot
		programID string
	)
	err := r.Pool.QueryRow(ctx, `
		SELECT pl.id, pl.player_id, pl.team_id, pl.status,
		       p.first_name, p.last_name, COALESCE(p.birth_year, 0),
		       t.name,
		       c.id, c.name, COALESCE(c.logo_url, ''),
		       pr.id, pr.name, COALESCE(pr.season, ''),
		       pr.donations_enabled, pr.financial_aid_enabled
		FROM invitations i
		JOIN placements pl ON pl.id = i.placement_id
		JOIN players p ON p.id = pl.player_id
		JOIN teams t ON t.id = pl.team_id
		JOIN clubs c ON c.id = t.club_id
		JOIN programs pr ON pr.id = t.program_id
		WHERE i.token = $1`, token).Scan(
		&snap.Placement.ID, &snap.Placement.PlayerID, &snap.Placement.TeamID, &snap.Placement.Status,
		&snap.Player.FirstName, &snap.Player.LastName, &snap.Player.BirthYear,
		&snap.Team.Name,
		&snap.Club.ID, &snap.Club.Name, &snap.Club.LogoURL,
		&snap.Program.ID, &snap.Program.Name, &snap.Program.Season,
		&snap.Settings.DonationsEnabled, &snap.Settings.FinancialAidEnabled,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return invitation.Snapshot{}, invitation.ErrNotFound
		}
		return invitation.Snapshot{}, fmt.Errorf("get invitation: %w", err)
	}
	snap.Token = token
	snap.Player.ID = snap.Placement.PlayerID
	snap.Team.ID = snap.Placement.TeamID
	programID = snap.Program.ID

	if snap.Packages, err = r.listPackages(ctx, programID); err != nil {
		return invitation.Snapshot{}, err
	}
	if snap.Questions, err = r.listQuestions(ctx, programID); err != nil {
		return invitation.Snapshot{}, err
	}
	if snap.VolunteerPositions, err = r.listVolunteerPositions(ctx, programID); err != nil {
		return invitation.Snapshot{}, err
	}
	return snap, nil
}

func (r InvitationRepo) listPackages(ctx context.Context, programID string) ([]invitation.Package, error) {
	rows, err := r.Pool.Query(ctx, `
		SELECT id, name, COALESCE(description, ''), price
		FROM packages
		WHERE program_id = $1
		ORDER BY price, name`, programID)
	if err != nil {
		return nil, fmt.Errorf("list packages: %w", err)
	}
	defer rows.Close()

	var packages []invitation.Package
	for rows.Next() {
		var pkg invitation.Package
		if err := rows.Scan(&pkg.ID, &pkg.Name, &pkg.Description, &pkg.Price); err != nil {
			return nil, fmt.Errorf("scan package: %w", err)
		}
		packages = append(packages, pkg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range packages {
		plans, err := r.ListPaymentPlans(ctx, packages[i].ID)
		if err != nil {
			return nil, err
		}
		packages[i].Plans = plans
	}
	return packages, nil
}

// ListPaymentPlans returns the plans configured for a package.
func (r InvitationRepo) ListPaymentPlans(ctx context.Context, packageID string) ([]pricing.PaymentPlan, error) {
	rows, err := r.Pool.Query(ctx, `
		SELECT id, name, total_amount, num_installments,
		       COALESCE(initial_payment_amount, 0), is_default
		FROM payment_plans
		WHERE package_id = $1
		ORDER BY is_default DESC, num_installments`, packageID)
	if err != nil {
		return nil, fmt.Errorf("list payment plans: %w", err)
	}
	defer rows.Close()

	var plans []pricing.PaymentPlan
	for rows.Next() {
		var p pricing.PaymentPlan
		if err := rows.Scan(&p.ID, &p.Name, &p.TotalAmount, &p.NumInstallments, &p.InitialPaymentAmount, &p.IsDefault); err != nil {
			return nil, fmt.Errorf("scan payment plan: %w", err)
		}
		plans = append(plans, p)
	}
	return plans, rows.Err()
}

func (r InvitationRepo) listQuestions(ctx context.Context, programID string) ([]invitation.Question, error) {
	rows, err := r.Pool.Query(ctx, `
		SELECT id, prompt, kind, required, COALESCE(options, '{}')
		FROM questions
		WHERE program_id = $1
		ORDER BY position`, programID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	defer rows.Close()

	var questions []invitation.Question
	for rows.Next() {
		var (
			q    invitation.Question
			kind string
		)
		if err := rows.Scan(&q.ID, &q.Prompt, &kind, &q.Required, &q.Options); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		parsed, err := invitation.ParseQuestionKind(kind)
		if err != nil {
			// A row with an unknown kind is skipped rather than breaking
			// the whole snapshot.
			continue
		}
		q.Kind = parsed
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

func (r InvitationRepo) listVolunteerPositions(ctx context.Context, programID string) ([]pricing.VolunteerPosition, error) {
	rows, err := r.Pool.Query(ctx, `
		SELECT id, name, COALESCE(description, ''), discount_amount, COALESCE(slots_available, 0)
		FROM volunteer_positions
		WHERE program_id = $1
		ORDER BY name`, programID)
	if err != nil {
		return nil, fmt.Errorf("list volunteer positions: %w", err)
	}
	defer rows.Close()

	var positions []pricing.VolunteerPosition
	for rows.Next() {
		var pos pricing.VolunteerPosition
		if err := rows.Scan(&pos.ID, &pos.Name, &pos.Description, &pos.DiscountAmount, &pos.SlotsAvailable); err != nil {
			return nil, fmt.Errorf("scan volunteer position: %w", err)
		}
		positions = append(positions, pos)
	}
	return positions, rows.Err()
}

// AcceptPlacement marks the placement accepted.
func (r InvitationRepo) AcceptPlacement(ctx context.Context, placementID string) error {
	tag, err := r.Pool.Exec(ctx, `
		UPDATE placements SET status = 'accepted', accepted_at = now()
		WHERE id = $1 AND status <> 'accepted'`, placementID)
	if err != nil {
		return fmt.Errorf("accept placement: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return invitation.ErrAlreadyAccepted
	}
	return nil
}

// SaveAnswers replaces the stored answers for a placement atomically.
func (r InvitationRepo) SaveAnswers(ctx context.Context, placementID string, answers []invitation.Answer) error {
	tx, err := r.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM placement_answers WHERE placement_id = $1`, placementID); err != nil {
		return fmt.Errorf("clear answers: %w", err)
	}
	for _, a := range answers {
		if _, err := tx.Exec(ctx, `
			INSERT INTO placement_answers (placement_id, question_id, text, selections, flag)
			VALUES ($1, $2, $3, $4, $5)`,
			placementID, a.QuestionID, a.Text, a.Selections, a.Flag); err != nil {
			return fmt.Errorf("insert answer: %w", err)
		}
	}
	return tx.Commit(ctx)
}
