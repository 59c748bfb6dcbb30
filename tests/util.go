package testutil

import (
	"testing"
	"time"

	"github.com/vidwanic/backend/core/catalog"
	"github.com/vidwanic/backend/core/school"
	"github.com/vidwanic/backend/core/user"
)

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, uname, email, pwd string,
	isAdmin, isActive bool,
	createdAt ...time.Time,
) user.User {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		Name:      name,
		Username:  uname,
		Email:     email,
		IsAdmin:   isAdmin,
		IsActive:  isActive,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateMagazine(
	t *testing.T,
	repo catalog.Repository,
	title string,
	price int,
	createdAt ...time.Time,
) catalog.Magazine {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	mag := catalog.Magazine{
		Title:       title,
		Description: title + " description",
		SuitableFor: "8-14 years",
		Price:       price,
		CreatedAt:   tstamp,
		UpdatedAt:   tstamp,
	}
	mag, err := repo.CreateMagazine(mag)
	if err != nil {
		t.Fatalf("CreateMagazine() failed: %v", err)
	}
	return mag
}

func CreateSchool(
	t *testing.T,
	repo school.Repository,
	usr user.User,
	name, udise string,
	verified bool,
) school.SchoolProfile {
	now := time.Now().UTC()
	sp := school.SchoolProfile{
		SchoolName:         name,
		UdiseCode:          udise,
		Address:            "12 Main Road",
		City:               "Pune",
		State:              "Maharashtra",
		Pincode:            "411001",
		SchoolType:         "private",
		ContactEmail:       usr.Email,
		ContactPhone:       "9876543210",
		PrincipalName:      "P. Principal",
		PrincipalEmail:     usr.Email,
		PrincipalPhone:     "9876543210",
		OnboardedByUserID:  usr.ID,
		OnboardedByName:    usr.Name,
		OnboardedByRole:    "principal",
		SubscriptionStatus: school.SubscriptionPending,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if verified {
		sp.IsVerified = true
		sp.SubscriptionStatus = school.SubscriptionActive
	}
	sp, err := repo.CreateSchoolProfile(sp)
	if err != nil {
		t.Fatalf("CreateSchool() failed: %v", err)
	}
	return sp
}
