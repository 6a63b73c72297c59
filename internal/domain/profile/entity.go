// internal/domain/profile/entity.go
package profile

import "trackpro-client/internal/domain/activity"

type ExperienceLevel string

const (
	LevelBeginner     ExperienceLevel = "beginner"
	LevelIntermediate ExperienceLevel = "intermediate"
	LevelAdvanced     ExperienceLevel = "advanced"
	LevelElite        ExperienceLevel = "elite"
)

// AthleteProfile is kept in local storage per user. Only AvatarURL is
// mirrored to the backend, so peers never see the other fields.
type AthleteProfile struct {
	Bio             string               `json:"bio"`
	Phone           string               `json:"phone"`
	DateOfBirth     string               `json:"dateOfBirth"`
	Gender          string               `json:"gender"`
	Country         string               `json:"country"`
	City            string               `json:"city"`
	Height          *float64             `json:"height"`
	Weight          *float64             `json:"weight"`
	PrimarySport    activity.SportType   `json:"primarySport"`
	SecondarySports []activity.SportType `json:"secondarySports"`
	ExperienceLevel ExperienceLevel      `json:"experienceLevel"`
	WeeklyGoalHours *float64             `json:"weeklyGoalHours"`
	AvatarURL       string               `json:"avatarUrl"`
	SportPhotoURL   string               `json:"sportPhotoUrl"`
}

func Default() AthleteProfile {
	return AthleteProfile{
		PrimarySport:    activity.SportCycling,
		SecondarySports: []activity.SportType{},
		ExperienceLevel: LevelIntermediate,
	}
}
