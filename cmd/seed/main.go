package main

import (
	"github.com/shoplite/shoplite/internal/config"
	"github.com/shoplite/shoplite/internal/constants"
	"github.com/shoplite/shoplite/internal/logger"
	"github.com/shoplite/shoplite/internal/models"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	products := []models.Product{
		{
			Name:        "无线机械键盘",
			Description: "87 键热插拔轴体, 支持蓝牙与 2.4G 双模连接。",
			Price:       models.NewMoneyFromDecimal(decimal.NewFromFloat(59.90)),
			Weight:      decimal.NewFromFloat(0.820),
			IsActive:    true,
		},
		{
			Name:        "便携咖啡手冲壶",
			Description: "304 不锈钢细口壶, 容量 600ml。",
			Price:       models.NewMoneyFromDecimal(decimal.NewFromFloat(25.50)),
			Weight:      decimal.NewFromFloat(0.450),
			IsActive:    true,
		},
		{
			Name:        "桌面收纳架",
			Description: "三层金属网格, 可拆卸组装。",
			Price:       models.NewMoneyFromDecimal(decimal.NewFromFloat(12.00)),
			Weight:      decimal.NewFromFloat(1.100),
			IsActive:    true,
		},
		{
			Name:        "旧款样品（已下架）",
			Description: "仅供内部测试, 不对外展示。",
			Price:       models.NewMoneyFromDecimal(decimal.NewFromFloat(5.00)),
			Weight:      decimal.NewFromFloat(0.100),
			IsActive:    false,
		},
	}

	for i := range products {
		var count int64
		models.DB.Model(&models.Product{}).Where("name = ?", products[i].Name).Count(&count)
		if count > 0 {
			stdLog.Printf("skip existing product: %s", products[i].Name)
			continue
		}
		if err := models.DB.Create(&products[i]).Error; err != nil {
			stdLog.Fatalf("Failed to seed product %s: %v", products[i].Name, err)
		}
		stdLog.Printf("seeded product: %s (%s)", products[i].Name, products[i].Price.String())
	}

	demoEmail := "demo@shoplite.local"
	var userCount int64
	models.DB.Model(&models.User{}).Where("email = ?", demoEmail).Count(&userCount)
	if userCount == 0 {
		hashed, err := bcrypt.GenerateFromPassword([]byte("demo-password"), bcrypt.DefaultCost)
		if err != nil {
			stdLog.Fatalf("Failed to hash demo password: %v", err)
		}
		user := models.User{
			Email:        demoEmail,
			PasswordHash: string(hashed),
			DisplayName:  "演示账号",
			Status:       constants.UserStatusActive,
		}
		if err := models.DB.Create(&user).Error; err != nil {
			stdLog.Fatalf("Failed to seed demo user: %v", err)
		}
		stdLog.Printf("seeded demo user: %s", demoEmail)
	} else {
		stdLog.Printf("skip existing demo user: %s", demoEmail)
	}

	stdLog.Println("seed completed")
}
