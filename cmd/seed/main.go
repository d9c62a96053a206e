package main

import (
	"context"
	"fmt"
	"log"

	"ai-tutor-be/internal/bootstrap"
	"ai-tutor-be/internal/config"
	"ai-tutor-be/internal/entity"
	"ai-tutor-be/internal/repository/specification"
	"ai-tutor-be/internal/repository/unitofwork"
	"ai-tutor-be/pkg/database"
	"ai-tutor-be/pkg/embedding"
)

// Loads the sample course into postgres and embeds its material with Ollama.
func main() {
	cfg := config.Load()
	if cfg.Database.Connection == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	db, err := database.NewGormDBFromDSN(cfg.Database.Connection, false)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	ctx := context.Background()
	factory := unitofwork.NewRepositoryFactory(db)
	uow := factory.NewUnitOfWork(ctx)

	existing, err := uow.CourseRepository().FindOne(ctx, specification.ByName{Name: bootstrap.DevCourseName})
	if err != nil {
		log.Fatal("Error: Failed to look up course:", err)
	}
	if existing != nil {
		log.Printf("Course %s already seeded, nothing to do", bootstrap.DevCourseName)
		return
	}

	dev := bootstrap.DevCourse()
	embedder := embedding.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.OllamaModel)

	source := bootstrap.DevCourseChunks()
	texts := make([]string, len(source))
	for i, c := range source {
		texts[i] = c.Content
	}
	vectors, err := embedder.GenerateBatch(ctx, texts, embedding.TaskRetrievalDocument)
	if err != nil {
		log.Fatal("Error: Failed to embed chunks:", err)
	}

	chunks := make([]*entity.CourseChunk, len(source))
	for i, c := range source {
		chunks[i] = &entity.CourseChunk{
			CourseName:         c.Metadata.CourseName,
			ItemTitle:          c.Metadata.ItemTitle,
			TopicTitle:         c.Metadata.TopicOrWeekTitle,
			LearningObjectives: c.Metadata.LearningObjectives,
			Content:            c.Content,
			EmbeddingValue:     vectors[i].Embedding.Values,
		}
	}

	course := &entity.Course{Name: dev.Name}
	for i, item := range dev.Items {
		course.Items = append(course.Items, &entity.CourseItem{Title: item.Title, Published: item.Published, Position: i})
	}

	err = factory.WithinTransaction(ctx, func(tx unitofwork.UnitOfWork) error {
		if err := tx.CourseRepository().Create(ctx, course); err != nil {
			return fmt.Errorf("create course: %w", err)
		}

		objectives := make([]*entity.LearningObjective, 0, len(bootstrap.DevObjectives()))
		for i, text := range bootstrap.DevObjectives() {
			objectives = append(objectives, &entity.LearningObjective{CourseId: course.Id, Text: text, Position: i})
		}
		if err := tx.LearningObjectiveRepository().CreateBulk(ctx, objectives); err != nil {
			return fmt.Errorf("create objectives: %w", err)
		}

		if err := tx.EnrollmentRepository().Create(ctx, &entity.CourseEnrollment{
			CourseId:   course.Id,
			CourseName: course.Name,
			UserId:     bootstrap.DevUserID,
			Role:       "student",
		}); err != nil {
			return fmt.Errorf("enroll sample student: %w", err)
		}

		if err := tx.CourseChunkRepository().CreateBulk(ctx, chunks); err != nil {
			return fmt.Errorf("store chunks: %w", err)
		}
		return nil
	})
	if err != nil {
		log.Fatal("Error: Failed to seed course:", err)
	}
	log.Printf("Seeded %s with %d chunks for %s", course.Name, len(chunks), bootstrap.DevUserID)

	courses, err := uow.CourseRepository().Count(ctx)
	if err != nil {
		log.Printf("Warn: Failed to count courses: %v", err)
		return
	}
	total, err := uow.CourseChunkRepository().Count(ctx, specification.ChunkInCourse{CourseName: course.Name})
	if err != nil {
		log.Printf("Warn: Failed to count chunks: %v", err)
		return
	}
	log.Printf("Database now holds %d courses; %s has %d chunks", courses, course.Name, total)
}
