package inmemdb

import (
	"context"
	"time"

	"github.com/trezcool/sejali/core/certificate"
)

type certificateRepository struct {
	db *DB
}

var _ certificate.Repository = (*certificateRepository)(nil) // interface compliance check

func NewCertificateRepository(db *DB) *certificateRepository {
	return &certificateRepository{db: db}
}

func copyCertificate(c certificate.Certificate) certificate.Certificate {
	if c.CourseID != nil {
		id := *c.CourseID
		c.CourseID = &id
	}
	if c.ActivityID != nil {
		id := *c.ActivityID
		c.ActivityID = &id
	}
	return c
}

// CreateCertificate numbers the certificate under the write lock, so numbers are unique and increasing.
func (repo *certificateRepository) CreateCertificate(_ context.Context, cert certificate.Certificate) (certificate.Certificate, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	repo.db.lastCertificateNumber++
	cert.CertificateNumber = repo.db.lastCertificateNumber
	cert = copyCertificate(cert)
	repo.db.certificates = append(repo.db.certificates, &cert)
	return copyCertificate(cert), nil
}

func (repo *certificateRepository) GetCertificate(_ context.Context, id string) (certificate.Certificate, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, c := range repo.db.certificates {
		if c.ID == id {
			return copyCertificate(*c), nil
		}
	}
	return certificate.Certificate{}, certificate.ErrNotFound
}

func (repo *certificateRepository) GetVerifiedCertificate(_ context.Context, code string) (certificate.Verified, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, c := range repo.db.certificates {
		if c.VerificationCode != code {
			continue
		}
		v := certificate.Verified{Certificate: copyCertificate(*c), HolderName: repo.db.userName(c.UserID)}
		if c.CourseID != nil {
			for _, crs := range repo.db.courses {
				if crs.ID == *c.CourseID {
					v.CourseName = crs.TitleAr
					break
				}
			}
		}
		return v, nil
	}
	return certificate.Verified{}, certificate.ErrNotFound
}

func (repo *certificateRepository) QueryUserCertificates(_ context.Context, userID string) ([]certificate.Certificate, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	certs := make([]certificate.Certificate, 0)
	for _, c := range newestFirst(repo.db.certificates, func(c *certificate.Certificate) time.Time { return c.IssuedAt }) {
		if c.UserID == userID {
			certs = append(certs, copyCertificate(c))
		}
	}
	return certs, nil
}
