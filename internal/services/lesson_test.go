package services

import (
  "context"
  "errors"
  "testing"
)

func TestPatchSpeakerNoteRejectsBadInput(t *testing.T) {
  fx := newPipelineFixture(t)
  ctx := context.Background()
  lesson := fx.newLesson(t, "1. Giới thiệu")

  if _, err := fx.lessons.PatchSpeakerNote(ctx, fx.userID, lesson.ID, 0, "   "); !errors.Is(err, ErrEmptyNote) {
    t.Fatalf("err = %v, want ErrEmptyNote", err)
  }
  if _, err := fx.lessons.PatchSpeakerNote(ctx, fx.userID, lesson.ID, -1, "note"); err == nil {
    t.Fatalf("negative index must be rejected")
  }
}

func TestPatchSpeakerNoteMissIsNotAnError(t *testing.T) {
  fx := newPipelineFixture(t)
  ctx := context.Background()
  // no slide script and no slide records yet
  lesson := fx.newLesson(t, "1. Giới thiệu")

  result, err := fx.lessons.PatchSpeakerNote(ctx, fx.userID, lesson.ID, 0, "note")
  if err != nil {
    t.Fatalf("a miss is a degradation, not an error: %v", err)
  }
  if result.DocumentPatched || result.RecordUpdated {
    t.Fatalf("nothing should have been patched: %+v", result)
  }
}

func TestDeleteReleasesPatchLock(t *testing.T) {
  fx := newPipelineFixture(t)
  ctx := context.Background()
  lesson := fx.newLesson(t, "1. Giới thiệu")

  if _, err := fx.lessons.PatchSpeakerNote(ctx, fx.userID, lesson.ID, 0, "note"); err != nil {
    t.Fatalf("patch: %v", err)
  }

  svc := fx.lessons.(*lessonService)
  if _, ok := svc.patchLocks.Load(lesson.ID); !ok {
    t.Fatalf("patch should have registered a lock")
  }

  if err := fx.lessons.Delete(ctx, fx.userID, lesson.ID); err != nil {
    t.Fatalf("delete: %v", err)
  }
  if _, ok := svc.patchLocks.Load(lesson.ID); ok {
    t.Fatalf("delete should release the lesson's patch lock")
  }
}
