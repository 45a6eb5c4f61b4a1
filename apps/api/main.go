package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"

	echoapi "github.com/inksight/backend/apps/api/echo"
	"github.com/inksight/backend/core"
	"github.com/inksight/backend/core/accommodation"
	"github.com/inksight/backend/core/course"
	"github.com/inksight/backend/core/lecture"
	"github.com/inksight/backend/core/notes"
	"github.com/inksight/backend/core/permission"
	"github.com/inksight/backend/core/school"
	"github.com/inksight/backend/core/user"
	emailsvc "github.com/inksight/backend/services/email"
	"github.com/inksight/backend/services/filestore"
	logsvc "github.com/inksight/backend/services/logger"
	"github.com/inksight/backend/storage/database"
	sqlxrepos "github.com/inksight/backend/storage/database/sqlx"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.Conf

	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	db, err := setUpDB(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = db.Close(); err != nil {
			logger.Error("failed to close DB", err)
		}
	}()
	dbx := sqlx.NewDb(db, conf.Database.Engine)

	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService()
	} else {
		mailSvc = emailsvc.NewSendgridService(logger)
	}
	files := filestore.NewLocalStorage(conf)

	usrRepo := sqlxrepos.NewUserRepository(dbx)
	usrSvc := user.NewService(usrRepo)
	schoolSvc := school.NewService(sqlxrepos.NewSchoolRepository(dbx))
	courseSvc := course.NewService(sqlxrepos.NewCourseRepository(dbx))
	accommodationSvc := accommodation.NewService(sqlxrepos.NewAccommodationRepository(dbx), courseSvc, usrSvc, mailSvc)
	lectureSvc := lecture.NewService(sqlxrepos.NewLectureRepository(dbx), files)
	notesSvc := notes.NewService(sqlxrepos.NewNotesRepository(dbx))
	permissionSvc := permission.NewService(sqlxrepos.NewPermissionRepository(dbx), usrRepo)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)

	// =========================================================================
	// Start API Service

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	server := echoapi.NewServer(
		&echoapi.Options{
			Address:          conf.Server.Addr,
			Logger:           logger,
			Validate:         validate,
			Translator:       translator,
			SignalShutdown:   func() { shutdown <- syscall.SIGTERM },
			UserSvc:          usrSvc,
			SchoolSvc:        schoolSvc,
			CourseSvc:        courseSvc,
			AccommodationSvc: accommodationSvc,
			LectureSvc:       lectureSvc,
			NotesSvc:         notesSvc,
			PermissionSvc:    permissionSvc,
		},
	)

	go server.Start()

	// =========================================================================
	// Shutdown

	sig := <-shutdown
	logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

	// give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err = server.Stop(ctx); err != nil {
		logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)
	}
}

func setUpDB(conf *core.Config) (*sql.DB, error) {
	if err := database.CreateIfNotExist(conf); err != nil {
		return nil, err
	}

	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}

	if err = database.Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}
