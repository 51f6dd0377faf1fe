package service

import (
	"context"
	"errors"
	"sync"

	"github.com/Kerhoff/InSync/internal/backend"
	"github.com/Kerhoff/InSync/internal/fetcher"
	"github.com/Kerhoff/InSync/internal/models"
	"github.com/Kerhoff/InSync/internal/mutation"
	"github.com/Kerhoff/InSync/internal/reconcile"
)

// ErrPhotoExists is returned when a photo shared by the same people exists.
var ErrPhotoExists = errors.New("photo already exists for the selected users")

// UploadReport describes an upload and its tagging.
type UploadReport struct {
	PhotoID models.ID
	Tagged  []models.ID
	Failed  []models.ID
}

// UploadPhoto checks that no photo already links the user and the tagged
// members, uploads photo and associates it with every tagged member.
// Association failures are reported per member and do not fail the upload.
func (s *Session) UploadPhoto(ctx context.Context, photo mutation.Asset, tagged []models.ID) (UploadReport, mutation.Outcome, error) {
	var report UploadReport

	id, err := s.Identity(ctx)
	if err != nil {
		return report, mutation.Outcome{}, err
	}

	ident := func(v models.ID) models.ID { return v }
	tagged = reconcile.Exclude(reconcile.Dedupe(tagged, ident), id, ident)

	exists, err := s.svc.backend.PhotoExists(ctx, append([]models.ID{id}, tagged...))
	if err != nil {
		return report, mutation.Classify(err), nil
	}
	if exists {
		return report, mutation.Outcome{}, ErrPhotoExists
	}

	sub := backend.UploadPhotoSubmission(id, photo)
	outcome := s.svc.submitter.Submit(ctx, sub, func(resp *fetcher.Response) error {
		result, err := backend.DecodeUpload(sub, resp)
		if err != nil {
			return err
		}
		report.PhotoID = result.PhotoID
		return nil
	})
	if !outcome.OK() {
		return report, outcome, nil
	}

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	for _, member := range tagged {
		wg.Add(1)
		go func(member models.ID) {
			defer wg.Done()
			tag := s.svc.submitter.Submit(ctx, backend.AssociatePhotoSubmission(report.PhotoID, member), nil)

			mu.Lock()
			defer mu.Unlock()
			if tag.OK() {
				report.Tagged = append(report.Tagged, member)
			} else {
				report.Failed = append(report.Failed, member)
			}
		}(member)
	}
	wg.Wait()

	s.views().gallery.Focus(id)
	return report, outcome, nil
}

// ReplacePhoto swaps the image of an existing photo and refreshes the gallery.
func (s *Session) ReplacePhoto(ctx context.Context, photoID models.ID, photo mutation.Asset) (mutation.Outcome, error) {
	id, err := s.Identity(ctx)
	if err != nil {
		return mutation.Outcome{}, err
	}

	outcome := s.svc.submitter.Submit(ctx, backend.ReplacePhotoSubmission(photoID, photo), nil)
	if outcome.OK() {
		s.views().gallery.Focus(id)
	}
	return outcome, nil
}
