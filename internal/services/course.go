package services

import (
  "context"
  "fmt"
  "gorm.io/gorm"
  "github.com/google/uuid"
  "github.com/yungbote/studioforge-backend/internal/logger"
  "github.com/yungbote/studioforge-backend/internal/repos"
  "github.com/yungbote/studioforge-backend/internal/requestdata"
  "github.com/yungbote/studioforge-backend/internal/types"
)

type CourseService interface {
  CreateCourse(ctx context.Context, course *types.Course) (*types.Course, error)
  GetCourse(ctx context.Context, courseID uuid.UUID) (*types.Course, error)
  ListCoursesForUser(ctx context.Context) ([]*types.Course, error)
  UpdateCourse(ctx context.Context, courseID uuid.UUID, updates map[string]interface{}) error
}

type courseService struct {
  db         *gorm.DB
  log        *logger.Logger
  courseRepo repos.CourseRepo
}

func NewCourseService(db *gorm.DB, baseLog *logger.Logger, courseRepo repos.CourseRepo) CourseService {
  serviceLog := baseLog.With("service", "CourseService")
  return &courseService{db: db, log: serviceLog, courseRepo: courseRepo}
}

func (cs *courseService) CreateCourse(ctx context.Context, course *types.Course) (*types.Course, error) {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil {
    return nil, fmt.Errorf("No request data found in context")
  }
  if course.Title == "" {
    return nil, fmt.Errorf("Course title is required")
  }
  course.ID = uuid.New()
  course.UserID = rd.UserID
  created, err := cs.courseRepo.Create(ctx, nil, []*types.Course{course})
  if err != nil {
    return nil, fmt.Errorf("Failed to create course: %w", err)
  }
  return created[0], nil
}

func (cs *courseService) GetCourse(ctx context.Context, courseID uuid.UUID) (*types.Course, error) {
  courses, err := cs.courseRepo.GetByIDs(ctx, nil, []uuid.UUID{courseID})
  if err != nil {
    return nil, fmt.Errorf("Failed to get course: %w", err)
  }
  if len(courses) == 0 {
    return nil, fmt.Errorf("Course not found")
  }
  return courses[0], nil
}

func (cs *courseService) ListCoursesForUser(ctx context.Context) ([]*types.Course, error) {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil {
    return nil, fmt.Errorf("No request data found in context")
  }
  courses, err := cs.courseRepo.GetByUserIDs(ctx, nil, []uuid.UUID{rd.UserID})
  if err != nil {
    return nil, fmt.Errorf("Failed to list courses: %w", err)
  }
  return courses, nil
}

func (cs *courseService) UpdateCourse(ctx context.Context, courseID uuid.UUID, updates map[string]interface{}) error {
  allowed := map[string]bool{"title": true, "description": true, "level": true, "subject": true, "metadata": true}
  filtered := map[string]interface{}{}
  for k, v := range updates {
    if allowed[k] {
      filtered[k] = v
    }
  }
  if len(filtered) == 0 {
    return fmt.Errorf("No updatable fields provided")
  }
  if err := cs.courseRepo.UpdateFields(ctx, nil, courseID, filtered); err != nil {
    return fmt.Errorf("Failed to update course: %w", err)
  }
  return nil
}
