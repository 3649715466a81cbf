package database

import (
	"fmt"
	"log"
	"skillsprint_backend/internal/config"
	"skillsprint_backend/internal/model"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func InitDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=Local",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.DBName,
		cfg.Charset,
		cfg.ParseTime,
	)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Info),
	})

	if err != nil {
		return nil, err
	}

	log.Println("Database connection established")

	err = db.AutoMigrate(
		&model.User{},
		&model.Objective{},
		&model.Sprint{},
		&model.MicroTask{},
		&model.SprintQuiz{},
		&model.SprintEvidence{},
		&model.GenerationJob{},
		&model.CompletionReceipt{},
		&model.UserSkill{},
		&model.QuizQuestion{},
		&model.QuizAttempt{},
		&model.TechnicalQuestion{},
		&model.TechnicalAttempt{},
	)

	if err != nil {
		return nil, err
	}

	log.Println("Database migration completed")

	// 默认技术评估题库（空库时插入示例题，方便本地联调）
	var tqCount int64
	db.Model(&model.TechnicalQuestion{}).Count(&tqCount)
	if tqCount == 0 {
		defaultQuestions := []model.TechnicalQuestion{
			{Key: "go_concurrency", QuestionType: "single_choice", Title: "Goroutine调度", Content: "下列关于goroutine的说法哪一项正确？", Options: []byte(`[{"id":"a","label":"goroutine是操作系统线程"},{"id":"b","label":"goroutine由Go运行时调度"},{"id":"c","label":"goroutine之间共享栈"}]`), Answer: "b", Points: 10, Order: 1},
			{Key: "http_status", QuestionType: "single_choice", Title: "HTTP状态码", Content: "资源不存在时服务端应返回哪个状态码？", Options: []byte(`[{"id":"a","label":"200"},{"id":"b","label":"404"},{"id":"c","label":"500"}]`), Answer: "b", Points: 10, Order: 2},
			{Key: "experience_years", QuestionType: "numeric", Title: "编程年限", Content: "你有几年编程经验？", Points: 0, Order: 3},
		}
		for _, q := range defaultQuestions {
			db.Create(&q)
		}
	}

	return db, nil
}
