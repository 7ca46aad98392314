package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/sejali/core"
	"github.com/trezcool/sejali/core/certificate"
)

type certificateRepository struct {
	db core.DB
}

var _ certificate.Repository = (*certificateRepository)(nil) // interface compliance check

func NewCertificateRepository(db core.DB) *certificateRepository {
	return &certificateRepository{db: db}
}

const (
	// certificateNumberLock is the advisory lock key serializing certificate numbering.
	certificateNumberLock = 7240311
	numberingAttempts     = 3

	certificateColumns = `id, user_id, course_id, activity_id, type, title_ar, title_en, certificate_number,
		verification_code, issued_at`
)

type (
	certificateRow struct {
		ID                string      `db:"id"`
		UserID            string      `db:"user_id"`
		CourseID          null.String `db:"course_id"`
		ActivityID        null.String `db:"activity_id"`
		Type              string      `db:"type"`
		TitleAr           string      `db:"title_ar"`
		TitleEn           null.String `db:"title_en"`
		CertificateNumber int64       `db:"certificate_number"`
		VerificationCode  string      `db:"verification_code"`
		IssuedAt          time.Time   `db:"issued_at"`
	}

	verifiedRow struct {
		certificateRow
		FirstName  null.String `db:"first_name"`
		LastName   null.String `db:"last_name"`
		CourseName null.String `db:"course_name"`
	}
)

func (r certificateRow) toCertificate() certificate.Certificate {
	return certificate.Certificate{
		ID:                r.ID,
		UserID:            r.UserID,
		CourseID:          r.CourseID.Ptr(),
		ActivityID:        r.ActivityID.Ptr(),
		Type:              r.Type,
		TitleAr:           r.TitleAr,
		TitleEn:           r.TitleEn.String,
		CertificateNumber: r.CertificateNumber,
		VerificationCode:  r.VerificationCode,
		IssuedAt:          r.IssuedAt.UTC(),
	}
}

func nullStringFromPtr(s *string) null.String {
	if s == nil {
		return null.String{}
	}
	return nullString(*s)
}

// CreateCertificate takes a transaction-scoped advisory lock before reading the current maximum,
// so concurrent issuers queue up instead of racing for the same number.
// The UNIQUE constraint backs the lock up; a collision is retried with a fresh number.
func (repo *certificateRepository) CreateCertificate(ctx context.Context, cert certificate.Certificate) (certificate.Certificate, error) {
	var err error
	for i := 0; i < numberingAttempts; i++ {
		err = withTx(ctx, repo.db, func(tx *sqlx.Tx) error {
			if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, certificateNumberLock); err != nil {
				return errors.Wrap(err, "locking certificate numbers")
			}
			if err := tx.GetContext(ctx, &cert.CertificateNumber,
				`SELECT COALESCE(MAX(certificate_number), 0) + 1 FROM certificates`); err != nil {
				return errors.Wrap(err, "reading next certificate number")
			}
			_, err := tx.ExecContext(ctx, `INSERT INTO certificates (`+certificateColumns+`)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
				cert.ID, cert.UserID, nullStringFromPtr(cert.CourseID), nullStringFromPtr(cert.ActivityID), cert.Type,
				cert.TitleAr, nullString(cert.TitleEn), cert.CertificateNumber, cert.VerificationCode, cert.IssuedAt)
			return err
		})
		if err == nil {
			return cert, nil
		}
		if !isUniqueViolation(err, "certificates_certificate_number_key") {
			break
		}
	}
	return certificate.Certificate{}, errors.Wrap(err, "inserting certificate")
}

func (repo *certificateRepository) GetCertificate(ctx context.Context, id string) (certificate.Certificate, error) {
	var row certificateRow
	if err := repo.db.GetContext(ctx, &row, `SELECT `+certificateColumns+` FROM certificates WHERE id = $1`, id); err != nil {
		return certificate.Certificate{}, trapNoRowsErr(err, certificate.ErrNotFound, "getting certificate")
	}
	return row.toCertificate(), nil
}

func (repo *certificateRepository) GetVerifiedCertificate(ctx context.Context, code string) (certificate.Verified, error) {
	var row verifiedRow
	err := repo.db.GetContext(ctx, &row, `
		SELECT c.id, c.user_id, c.course_id, c.activity_id, c.type, c.title_ar, c.title_en, c.certificate_number,
			c.verification_code, c.issued_at, u.first_name, u.last_name, co.title_ar AS course_name
		FROM certificates c
		LEFT JOIN users u ON u.id = c.user_id
		LEFT JOIN courses co ON co.id = c.course_id
		WHERE c.verification_code = $1`, code)
	if err != nil {
		return certificate.Verified{}, trapNoRowsErr(err, certificate.ErrNotFound, "verifying certificate")
	}
	return certificate.Verified{
		Certificate: row.toCertificate(),
		HolderName:  core.FullName(row.FirstName.String, row.LastName.String),
		CourseName:  row.CourseName.String,
	}, nil
}

func (repo *certificateRepository) QueryUserCertificates(ctx context.Context, userID string) ([]certificate.Certificate, error) {
	var rows []certificateRow
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT `+certificateColumns+` FROM certificates WHERE user_id = $1 ORDER BY issued_at DESC`, userID)
	if err != nil {
		return nil, errors.Wrap(err, "querying certificates")
	}
	certs := make([]certificate.Certificate, 0, len(rows))
	for _, r := range rows {
		certs = append(certs, r.toCertificate())
	}
	return certs, nil
}
