package services

import (
	"github.com/uptask/uptask-server/internal/config"
	"github.com/uptask/uptask-server/internal/db"
	"github.com/uptask/uptask-server/internal/mail"
	auth2 "github.com/uptask/uptask-server/internal/services/auth"
	note2 "github.com/uptask/uptask-server/internal/services/note"
	project2 "github.com/uptask/uptask-server/internal/services/project"
	task2 "github.com/uptask/uptask-server/internal/services/task"
	token2 "github.com/uptask/uptask-server/internal/services/token"
	user2 "github.com/uptask/uptask-server/internal/services/user"
)

type Services struct {
	Auth    *auth2.AuthService
	User    *user2.UserService
	Project *project2.ProjectService
	Task    *task2.TaskService
	Note    *note2.NoteService
}

func NewServices(conf *config.Config) *Services {
	dbconn := db.NewConn(conf)

	userRepo := user2.NewUserRepo(dbconn)
	tokenRepo := token2.NewTokenRepo(dbconn)
	noteRepo := note2.NewNoteRepo(dbconn)
	mailer := mail.NewMailer(conf)

	return &Services{
		Auth:    auth2.NewAuthService(dbconn, userRepo, tokenRepo, mailer),
		User:    user2.NewUserService(userRepo),
		Project: project2.NewProjectService(project2.NewProjectRepo(dbconn)),
		Task:    task2.NewTaskService(dbconn, task2.NewTaskRepo(dbconn), noteRepo),
		Note:    note2.NewNoteService(noteRepo),
	}
}
