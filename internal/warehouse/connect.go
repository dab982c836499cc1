// Package warehouse is the client for the analytical SQL store holding the
// event log and AI analysis records.
package warehouse

import (
	"fmt"
	"net"
	"strconv"

	mysqldriver "github.com/go-sql-driver/mysql"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/user/datalake/internal/schema"
)

// Options selects and locates the warehouse. DSN, when set, takes precedence
// over the discrete MySQL fields.
type Options struct {
	Driver   string
	DSN      string
	Host     string
	Port     int
	User     string
	Password string
	Database string
}

// MySQLDSN builds a MySQL DSN from the discrete fields.
func (o Options) MySQLDSN() string {
	if o.DSN != "" {
		return o.DSN
	}
	cfg := mysqldriver.NewConfig()
	cfg.User = o.User
	cfg.Passwd = o.Password
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(o.Host, strconv.Itoa(o.Port))
	cfg.DBName = o.Database
	cfg.ParseTime = true
	return cfg.FormatDSN()
}

// Open connects to the warehouse named by opts.
func Open(opts Options) (*Client, error) {
	var dialector gorm.Dialector
	switch opts.Driver {
	case schema.DialectMySQL:
		dialector = mysql.Open(opts.MySQLDSN())
	case schema.DialectSQLite:
		if opts.DSN == "" {
			return nil, fmt.Errorf("warehouse: sqlite requires a dsn")
		}
		dialector = sqlite.Open(opts.DSN)
	default:
		return nil, fmt.Errorf("warehouse: unsupported driver %q", opts.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("warehouse: connect (%s): %w", opts.Driver, err)
	}
	return New(db, opts.Driver), nil
}
