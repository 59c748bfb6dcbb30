package inmemdb

import (
	"sync"

	"github.com/vidwanic/backend/core/catalog"
	"github.com/vidwanic/backend/core/enquiry"
	"github.com/vidwanic/backend/core/order"
	"github.com/vidwanic/backend/core/school"
	"github.com/vidwanic/backend/core/user"
)

// DB is an in-memory stand-in for the real database, used in tests. A single
// mutex guards all tables so multi-table writes (order creation) stay atomic.
type DB struct {
	mutex sync.RWMutex
	seq   int

	users      map[string]*user.User
	magazines  map[string]*catalog.Magazine
	comments   map[string]*catalog.Comment
	enquiries  map[string]*enquiry.Enquiry
	schools    map[string]*school.SchoolProfile
	students   map[string]*school.Student
	teachers   map[string]*school.Teacher
	attendance map[string]*school.Attendance
	orders     map[string]*order.Order

	// insertion sequence per record id, used to break created_at ties
	seqs map[string]int
}

func Open() *DB {
	return &DB{
		users:      make(map[string]*user.User),
		magazines:  make(map[string]*catalog.Magazine),
		comments:   make(map[string]*catalog.Comment),
		enquiries:  make(map[string]*enquiry.Enquiry),
		schools:    make(map[string]*school.SchoolProfile),
		students:   make(map[string]*school.Student),
		teachers:   make(map[string]*school.Teacher),
		attendance: make(map[string]*school.Attendance),
		orders:     make(map[string]*order.Order),
	}
}

func (db *DB) track(id string) {
	db.seq++
	if db.seqs == nil {
		db.seqs = make(map[string]int)
	}
	db.seqs[id] = db.seq
}

// newestFirst reports whether record a was inserted after record b.
func (db *DB) newestFirst(idA, idB string) bool {
	return db.seqs[idA] > db.seqs[idB]
}

// AddStudent seeds a student record; school staff CRUD is out of scope so
// tests populate dashboards directly.
func (db *DB) AddStudent(st school.Student) {
	db.mutex.Lock()
	defer db.mutex.Unlock()
	db.students[st.ID] = &st
	db.track(st.ID)
}

func (db *DB) AddTeacher(t school.Teacher) {
	db.mutex.Lock()
	defer db.mutex.Unlock()
	db.teachers[t.ID] = &t
	db.track(t.ID)
}

func (db *DB) AddAttendance(att school.Attendance) {
	db.mutex.Lock()
	defer db.mutex.Unlock()
	db.attendance[att.ID] = &att
	db.track(att.ID)
}
