package models

import "testing"

func TestRecommendationQuery_Validate(t *testing.T) {
	tests := []struct {
		name    string
		query   RecommendationQuery
		wantErr bool
	}{
		{"valid", RecommendationQuery{UserID: 1, NumRec: 5}, false},
		{"valid with title and filters", RecommendationQuery{UserID: 7, CourseTitle: "Intro to Go", Level: "Beginner", Category: "Programming", NumRec: 3}, false},
		{"zero user", RecommendationQuery{UserID: 0, NumRec: 5}, true},
		{"negative user", RecommendationQuery{UserID: -2, NumRec: 5}, true},
		{"zero num_rec", RecommendationQuery{UserID: 1, NumRec: 0}, true},
		{"negative num_rec", RecommendationQuery{UserID: 1, NumRec: -1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.query.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
