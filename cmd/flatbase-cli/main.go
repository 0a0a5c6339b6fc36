// Command flatbase-cli is an interactive shell over the flatbase
// engine. It only ever calls the engine's public operation surface;
// all command parsing lives here, outside the core.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"

	"github.com/tuannm99/flatbase"
)

func defaultHistoryPath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ".flatbase_history"
	}
	return filepath.Join(home, ".flatbase_history")
}

func main() {
	var (
		configPath = flag.String("config", "", "YAML config file")
		dataDir    = flag.String("data", "data", "data directory (overridden by config)")
		histPath   = flag.String("history", defaultHistoryPath(), "history file path")
	)
	flag.Parse()

	dir := *dataDir
	hist := *histPath
	if *configPath != "" {
		cfg, err := flatbase.LoadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "config: %v\n", err)
			os.Exit(1)
		}
		if cfg.Storage.DataDir != "" {
			dir = cfg.Storage.DataDir
		}
		if cfg.CLI.HistoryFile != "" {
			hist = cfg.CLI.HistoryFile
		}
	}

	db, err := flatbase.Open(dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open: %v\n", err)
		os.Exit(1)
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "flatbase> ",
		HistoryFile:     hist,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "readline: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = rl.Close() }()

	fmt.Println("flatbase shell; type help for commands")

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			fmt.Println("^C")
			continue
		}
		if err != nil {
			fmt.Println()
			return
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		args := strings.Fields(line)
		switch strings.ToLower(args[0]) {
		case "quit", "exit":
			return
		case "help":
			printHelp()
		case "clear":
			fmt.Print("\033[H\033[J")
		case "create":
			doCreate(db, args[1:])
		case "drop":
			doDrop(db, args[1:])
		case "insert":
			doInsert(db, args[1:])
		case "update":
			doUpdate(db, args[1:])
		case "delete":
			doDelete(db, args[1:])
		case "get":
			doGet(db, args[1:])
		case "join":
			doJoin(db, args[1:])
		case "groupby":
			doGroupBy(db, args[1:])
		default:
			fmt.Printf("unknown command: %s\n", args[0])
		}
	}
}

func printHelp() {
	fmt.Println(`commands:
  create  TABLE COL TYPE [COL TYPE ...] PRIMARY_KEY
  drop    TABLE
  insert  TABLE V1 V2 ...                       (values in schema order)
  update  TABLE PK=VALUE COL=NEW [COL=NEW ...]  (all columns required)
  delete  TABLE PK=VALUE
  get     TABLE [COL ...] [where EXPR] [ORDER_BY COL ASC|DESC]
  join    LEFT RIGHT on L.COL==R.COL [COL ...] [where EXPR] [ORDER_BY COL ASC|DESC]
  groupby TABLE GROUP_COL FN AGG_COL            (FN: SUM COUNT MIN MAX AVG)
  help | clear | quit | exit`)
}

func doCreate(db *flatbase.Database, args []string) {
	if len(args) < 4 || len(args)%2 != 0 {
		fmt.Println("usage: create TABLE COL TYPE [COL TYPE ...] PRIMARY_KEY")
		return
	}
	table := args[0]
	pk := args[len(args)-1]
	var cols []flatbase.ColumnDef
	for i := 1; i+1 < len(args)-1; i += 2 {
		cols = append(cols, flatbase.ColumnDef{Name: args[i], Type: args[i+1]})
	}
	if err := db.CreateTable(table, cols, pk); err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	fmt.Printf("table %s created\n", table)
}

func doDrop(db *flatbase.Database, args []string) {
	if len(args) != 1 {
		fmt.Println("usage: drop TABLE")
		return
	}
	if err := db.DropTable(args[0]); err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	fmt.Printf("table %s dropped\n", args[0])
}

func doInsert(db *flatbase.Database, args []string) {
	if len(args) < 2 {
		fmt.Println("usage: insert TABLE V1 V2 ...")
		return
	}
	table := args[0]
	cols, err := db.Columns(table)
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	if len(args[1:]) != len(cols) {
		fmt.Printf("expected %d values, got %d\n", len(cols), len(args[1:]))
		return
	}
	values := make(map[string]string, len(cols))
	for i, col := range cols {
		values[col] = args[i+1]
	}
	if err := db.Insert(table, values); err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	fmt.Printf("row added to %s\n", table)
}

func splitAssign(s string) (string, string, bool) {
	kv := strings.SplitN(s, "=", 2)
	if len(kv) != 2 || kv[0] == "" {
		return "", "", false
	}
	return kv[0], kv[1], true
}

func doUpdate(db *flatbase.Database, args []string) {
	if len(args) < 3 {
		fmt.Println("usage: update TABLE PK=VALUE COL=NEW [COL=NEW ...]")
		return
	}
	table := args[0]
	col, val, ok := splitAssign(args[1])
	if !ok {
		fmt.Println("usage: update TABLE PK=VALUE COL=NEW [COL=NEW ...]")
		return
	}
	values := make(map[string]string)
	for _, a := range args[2:] {
		k, v, ok := splitAssign(a)
		if !ok {
			fmt.Printf("bad assignment %q\n", a)
			return
		}
		values[k] = v
	}
	if err := db.Update(table, col, val, values); err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	fmt.Printf("row updated in %s\n", table)
}

func doDelete(db *flatbase.Database, args []string) {
	if len(args) != 2 {
		fmt.Println("usage: delete TABLE PK=VALUE")
		return
	}
	col, val, ok := splitAssign(args[1])
	if !ok {
		fmt.Println("usage: delete TABLE PK=VALUE")
		return
	}
	if err := db.Delete(args[0], col, val); err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	fmt.Printf("row deleted from %s\n", args[0])
}

// splitClauses pulls the optional trailing "where EXPR" and
// "ORDER_BY COL DIR" clauses off a command tail.
func splitClauses(args []string) (head []string, filter flatbase.Filter, orderBy *flatbase.OrderBy, err error) {
	rest := args
	for i, a := range rest {
		if a == "ORDER_BY" {
			tail := rest[i+1:]
			if len(tail) == 0 || len(tail) > 2 {
				return nil, nil, nil, fmt.Errorf("usage: ORDER_BY COL [ASC|DESC]")
			}
			orderBy = &flatbase.OrderBy{Column: tail[0], Direction: "ASC"}
			if len(tail) == 2 {
				orderBy.Direction = tail[1]
			}
			rest = rest[:i]
			break
		}
	}
	for i, a := range rest {
		if strings.EqualFold(a, "where") {
			filter, err = flatbase.ParseFilter(strings.Join(rest[i+1:], " "))
			if err != nil {
				return nil, nil, nil, err
			}
			rest = rest[:i]
			break
		}
	}
	return rest, filter, orderBy, nil
}

func doGet(db *flatbase.Database, args []string) {
	if len(args) < 1 {
		fmt.Println("usage: get TABLE [COL ...] [where EXPR] [ORDER_BY COL ASC|DESC]")
		return
	}
	head, filter, orderBy, err := splitClauses(args)
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	table := head[0]
	var cols []string
	if len(head) > 1 {
		cols = head[1:]
	}
	res, err := db.ExecuteQuery(table, cols, filter, orderBy)
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	printResult(res)
}

func doJoin(db *flatbase.Database, args []string) {
	if len(args) < 4 || args[2] != "on" {
		fmt.Println("usage: join LEFT RIGHT on L.COL==R.COL [COL ...] [where EXPR] [ORDER_BY COL ASC|DESC]")
		return
	}
	left, right, joinCond := args[0], args[1], args[3]
	head, filter, orderBy, err := splitClauses(args[4:])
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	var cols []string
	if len(head) > 0 {
		cols = head
	}
	res, err := db.ExecuteJoinQuery(left, cols, filter, orderBy, right, joinCond)
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	printResult(res)
}

func doGroupBy(db *flatbase.Database, args []string) {
	if len(args) != 4 {
		fmt.Println("usage: groupby TABLE GROUP_COL FN AGG_COL")
		return
	}
	res, err := db.PerformGroupBy(args[0], args[1], args[2], args[3])
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	printResult(res)
}

func printResult(res *flatbase.Result) {
	cols := res.Columns
	widths := make([]int, len(cols))
	for i, c := range cols {
		widths[i] = len(c)
	}
	cells := make([][]string, len(res.Rows))
	for r, row := range res.Rows {
		cells[r] = make([]string, len(cols))
		for i := range cols {
			s := "NULL"
			if i < len(row) && row[i] != nil {
				s = fmt.Sprintf("%v", row[i])
			}
			cells[r][i] = s
			if len(s) > widths[i] {
				widths[i] = len(s)
			}
		}
	}

	printRow := func(vals []string) {
		for i := range cols {
			if i > 0 {
				fmt.Print(" | ")
			}
			fmt.Print(padRight(vals[i], widths[i]))
		}
		fmt.Println()
	}

	printRow(cols)
	for i := range cols {
		if i > 0 {
			fmt.Print("-+-")
		}
		fmt.Print(strings.Repeat("-", widths[i]))
	}
	fmt.Println()
	for _, row := range cells {
		printRow(row)
	}
	fmt.Printf("(%d rows)\n", len(res.Rows))
}

func padRight(s string, w int) string {
	if len(s) >= w {
		return s
	}
	return s + strings.Repeat(" ", w-len(s))
}
