package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"interview-platform/domain"
)

// SeedPositions inserts a sample position into an empty positions table so a
// fresh deployment can run an interview end to end. It does nothing when any
// position exists.
func SeedPositions(ctx context.Context, db *gorm.DB, log *zap.Logger) (int, error) {
	var count int64
	if err := db.WithContext(ctx).Model(&domain.Position{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count positions: %w", err)
	}
	if count > 0 {
		return 0, nil
	}

	jd, err := json.Marshal(map[string]interface{}{
		"role":             "Backend Engineer",
		"responsibilities": []string{"Design and operate HTTP APIs", "Own queue based background processing", "Integrate language model features"},
		"requirements": map[string]interface{}{
			"technical_skills": "Go, SQL databases, RabbitMQ, API design",
			"experience":       "3+ years building production backend services",
			"cultural_fit":     "Clear written communication, comfortable working remotely",
		},
	})
	if err != nil {
		return 0, err
	}

	positions := []domain.Position{
		{
			ID:   domain.NewID(),
			Name: "Backend Engineer",
			JDText: "Backend Engineer working on Go services backed by MySQL and RabbitMQ, " +
				"building RESTful APIs and integrating language model features into the product.",
			JDObject:           jd,
			IntroductionSpeech: "Thanks for joining. This is a short technical interview for the Backend Engineer role.",
		},
	}
	if err := db.WithContext(ctx).Create(&positions).Error; err != nil {
		return 0, fmt.Errorf("seed positions: %w", err)
	}
	log.Info("seeded positions", zap.Int("count", len(positions)))
	return len(positions), nil
}
