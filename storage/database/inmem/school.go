package inmemdb

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vidwanic/backend/core"
	"github.com/vidwanic/backend/core/school"
)

type schoolRepository struct {
	db *DB
}

var _ school.Repository = (*schoolRepository)(nil) // interface compliance check

func NewSchoolRepository(db *DB) *schoolRepository {
	return &schoolRepository{db: db}
}

func (repo *schoolRepository) CreateSchoolProfile(sp school.SchoolProfile) (school.SchoolProfile, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	sp.ID = uuid.New().String()
	repo.db.schools[sp.ID] = &sp
	repo.db.track(sp.ID)
	return sp, nil
}

func (repo *schoolRepository) GetSchoolProfileByID(id string) (school.SchoolProfile, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if sp, ok := repo.db.schools[id]; ok {
		return *sp, nil
	}
	return school.SchoolProfile{}, school.ErrNotFound
}

func (repo *schoolRepository) GetSchoolProfileByUser(userID string) (school.SchoolProfile, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, sp := range repo.db.schools {
		if sp.OnboardedByUserID == userID {
			return *sp, nil
		}
	}
	return school.SchoolProfile{}, school.ErrNotFound
}

func (repo *schoolRepository) GetSchoolProfileByUdise(udiseCode string) (school.SchoolProfile, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, sp := range repo.db.schools {
		if sp.UdiseCode != "" && sp.UdiseCode == udiseCode {
			return *sp, nil
		}
	}
	return school.SchoolProfile{}, school.ErrNotFound
}

func (repo *schoolRepository) FilterSchoolProfiles(filter school.QueryFilter, ordering ...core.DBOrdering) ([]school.SchoolProfile, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	match := func(sp school.SchoolProfile) bool {
		if filter.Search != "" {
			kw := strings.ToLower(filter.Search)
			if !(strings.Contains(strings.ToLower(sp.SchoolName), kw) ||
				strings.Contains(strings.ToLower(sp.City), kw) ||
				strings.Contains(sp.UdiseCode, kw)) {
				return false
			}
		}
		if filter.IsVerified != nil && sp.IsVerified != *filter.IsVerified {
			return false
		}
		if filter.Status != "" && sp.SubscriptionStatus != filter.Status {
			return false
		}
		return true
	}

	var profiles []school.SchoolProfile
	for _, sp := range repo.db.schools {
		if match(*sp) {
			profiles = append(profiles, *sp)
		}
	}
	sort.Slice(profiles, func(i, j int) bool { return repo.db.newestFirst(profiles[i].ID, profiles[j].ID) })
	return profiles, nil
}

func (repo *schoolRepository) UpdateSchoolProfile(sp school.SchoolProfile) (school.SchoolProfile, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.schools[sp.ID]
	if !ok {
		return school.SchoolProfile{}, school.ErrNotFound
	}
	orig.IsVerified = sp.IsVerified
	orig.UdiseVerified = sp.UdiseVerified
	orig.SubscriptionStatus = sp.SubscriptionStatus
	orig.VerificationNotes = sp.VerificationNotes
	orig.UpdatedAt = sp.UpdatedAt
	return *orig, nil
}

func (repo *schoolRepository) CountStudents(schoolID string) (int, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	count := 0
	for _, st := range repo.db.students {
		if st.SchoolID == schoolID {
			count++
		}
	}
	return count, nil
}

func (repo *schoolRepository) CountTeachers(schoolID string) (int, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	count := 0
	for _, t := range repo.db.teachers {
		if t.SchoolID == schoolID {
			count++
		}
	}
	return count, nil
}

func (repo *schoolRepository) RecentStudents(schoolID string, n int) ([]school.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var students []school.Student
	for _, st := range repo.db.students {
		if st.SchoolID == schoolID {
			students = append(students, *st)
		}
	}
	sort.Slice(students, func(i, j int) bool { return repo.db.newestFirst(students[i].ID, students[j].ID) })
	if len(students) > n {
		students = students[:n]
	}
	return students, nil
}

func (repo *schoolRepository) RecentTeachers(schoolID string, n int) ([]school.Teacher, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var teachers []school.Teacher
	for _, t := range repo.db.teachers {
		if t.SchoolID == schoolID {
			teachers = append(teachers, *t)
		}
	}
	sort.Slice(teachers, func(i, j int) bool { return repo.db.newestFirst(teachers[i].ID, teachers[j].ID) })
	if len(teachers) > n {
		teachers = teachers[:n]
	}
	return teachers, nil
}

func (repo *schoolRepository) AttendanceStats(schoolID string, since time.Time) (int, int, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var present, total int
	for _, att := range repo.db.attendance {
		st, ok := repo.db.students[att.StudentID]
		if !ok || st.SchoolID != schoolID || att.Date.Before(since) {
			continue
		}
		total++
		if att.Status == "present" {
			present++
		}
	}
	return present, total, nil
}
