//go:build integration_test || all_tests

package test

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/2beens/fitlog/internal/workouts"
)

const legsAndChest = `#Legs
-Squat
3X10
50kg
20min
-Lunges
3setsX12reps
10kg
10min
#Chest
-Bench
5X5
80kg
15min`

func (s *IntegrationTestSuite) TestWorkouts_AddAndDashboard() {
	session := s.register(newTestAccount())

	status, body := s.doRequest(http.MethodPost, "/api/v1/users/workout", session.Token, map[string]string{
		"workoutString": legsAndChest,
	})
	s.Require().Equal(http.StatusCreated, status, string(body))

	var added workouts.AddWorkoutsResponse
	s.Require().NoError(json.Unmarshal(body, &added))
	s.Require().Len(added.Workouts, 3)
	s.Empty(added.Duplicates)
	for _, w := range added.Workouts {
		s.NotZero(w.ID)
		s.Equal(session.User.ID, w.UserID)
	}
	s.Equal(3, s.countRows(`SELECT COUNT(*) FROM workout WHERE user_id = $1`, session.User.ID))

	// same log again on the same day
	status, _ = s.doRequest(http.MethodPost, "/api/v1/users/workout", session.Token, map[string]string{
		"workoutString": legsAndChest,
	})
	s.Equal(http.StatusConflict, status)
	s.Equal(3, s.countRows(`SELECT COUNT(*) FROM workout WHERE user_id = $1`, session.User.ID))

	// one new entry among the known ones
	status, body = s.doRequest(http.MethodPost, "/api/v1/users/workout", session.Token, map[string]string{
		"workoutString": "#Legs\n-Squat\n3X10\n50kg\n20min\n#Core\n-Plank\n1X1\n0kg\n5min",
	})
	s.Require().Equal(http.StatusCreated, status, string(body))
	added = workouts.AddWorkoutsResponse{}
	s.Require().NoError(json.Unmarshal(body, &added))
	s.Len(added.Workouts, 1)
	s.Equal([]string{"Legs/Squat"}, added.Duplicates)

	status, body = s.doRequest(http.MethodGet, "/api/v1/users/dashboard", session.Token, nil)
	s.Require().Equal(http.StatusOK, status)

	var summary workouts.Summary
	s.Require().NoError(json.Unmarshal(body, &summary))
	// 500 + 50 + 600 + 0
	s.Equal(1150.0, summary.TotalCaloriesBurnt)
	s.Equal(4, summary.TotalWorkouts)
	s.Equal(287.5, summary.AvgCaloriesBurntPerWorkout)
	s.Equal([]workouts.PieChartEntry{
		{ID: 0, Value: 550, Label: "Legs"},
		{ID: 1, Value: 600, Label: "Chest"},
		{ID: 2, Value: 0, Label: "Core"},
	}, summary.PieChartData)
	s.Require().Len(summary.TotalWeeksCaloriesBurnt.CaloriesBurned, 7)
	s.Equal(1150.0, summary.TotalWeeksCaloriesBurnt.CaloriesBurned[6])
	s.Equal(workouts.DayLabel(time.Now()), summary.TotalWeeksCaloriesBurnt.Weeks[6])

	status, body = s.doRequest(http.MethodGet, "/api/v1/users/workout", session.Token, nil)
	s.Require().Equal(http.StatusOK, status)
	var today workouts.DayWorkouts
	s.Require().NoError(json.Unmarshal(body, &today))
	s.Len(today.TodaysWorkouts, 4)
	s.Equal(1150.0, today.TotalCaloriesBurnt)

	yesterday := time.Now().AddDate(0, 0, -1).Format(time.DateOnly)
	status, body = s.doRequest(http.MethodGet, "/api/v1/users/workout?date="+yesterday, session.Token, nil)
	s.Require().Equal(http.StatusOK, status)
	today = workouts.DayWorkouts{}
	s.Require().NoError(json.Unmarshal(body, &today))
	s.Empty(today.TodaysWorkouts)
}

func (s *IntegrationTestSuite) TestWorkouts_ParseErrors() {
	session := s.register(newTestAccount())

	for raw, expected := range map[string]string{
		"-Bench\n3X10\n50kg": "incomplete workout details for category \"\", entry \"Bench\"\n",
		"Bench press":        "unexpected line format: \"Bench press\"\n",
		"#Legs":              "no valid workouts found\n",
	} {
		status, body := s.doRequest(http.MethodPost, "/api/v1/users/workout", session.Token, map[string]string{
			"workoutString": raw,
		})
		s.Equal(http.StatusBadRequest, status)
		s.Equal(expected, string(body))
	}

	s.Equal(0, s.countRows(`SELECT COUNT(*) FROM workout WHERE user_id = $1`, session.User.ID))
}

func (s *IntegrationTestSuite) TestWorkouts_Unauthorized() {
	status, _ := s.doRequest(http.MethodPost, "/api/v1/users/workout", "", map[string]string{
		"workoutString": legsAndChest,
	})
	s.Equal(http.StatusUnauthorized, status)
}
