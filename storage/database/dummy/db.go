package dummydb

import (
	"sync"

	"github.com/cmabris/erasmus25/core/call"
	"github.com/cmabris/erasmus25/core/catalog"
	"github.com/cmabris/erasmus25/core/content"
	"github.com/cmabris/erasmus25/core/user"
)

type (
	DB struct {
		user    *userTables
		catalog *catalogTables
		call    *callTables
		content *contentTables
	}

	userTables struct {
		sync.RWMutex
		users map[string]*user.User
		roles map[string]*user.Role // by name
	}

	catalogTables struct {
		sync.RWMutex
		programs   map[string]*catalog.Program
		years      map[string]*catalog.AcademicYear
		categories map[string]*catalog.DocumentCategory
		languages  map[string]*catalog.Language
		settings   map[string]*catalog.SiteSetting // by key
	}

	callTables struct {
		sync.RWMutex
		calls       map[string]*call.Call
		phases      map[string]*call.CallPhase
		resolutions map[string]*call.Resolution
	}

	contentTables struct {
		sync.RWMutex
		documents     map[string]*content.Document
		newsPosts     map[string]*content.NewsPost
		events        map[string]*content.ErasmusEvent
		subscriptions map[string]*content.NewsletterSubscription
		consents      map[string]*content.MediaConsent
	}
)

func Open() (*DB, error) {
	db := &DB{
		user: &userTables{
			users: make(map[string]*user.User),
			roles: make(map[string]*user.Role),
		},
		catalog: &catalogTables{
			programs:   make(map[string]*catalog.Program),
			years:      make(map[string]*catalog.AcademicYear),
			categories: make(map[string]*catalog.DocumentCategory),
			languages:  make(map[string]*catalog.Language),
			settings:   make(map[string]*catalog.SiteSetting),
		},
		call: &callTables{
			calls:       make(map[string]*call.Call),
			phases:      make(map[string]*call.CallPhase),
			resolutions: make(map[string]*call.Resolution),
		},
		content: &contentTables{
			documents:     make(map[string]*content.Document),
			newsPosts:     make(map[string]*content.NewsPost),
			events:        make(map[string]*content.ErasmusEvent),
			subscriptions: make(map[string]*content.NewsletterSubscription),
			consents:      make(map[string]*content.MediaConsent),
		},
	}
	return db, nil
}
