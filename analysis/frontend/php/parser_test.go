// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package php

import (
	"context"
	"testing"

	"github.com/awslabs/ar-php-tools/analysis/ir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, src string) []ir.Stmt {
	t.Helper()
	f, err := Parse(context.Background(), "test.php", []byte(src))
	require.NoError(t, err)
	require.Equal(t, "test.php", f.Path)
	return f.Body
}

func formatted(body []ir.Stmt) []string {
	var res []string
	for _, s := range body {
		res = append(res, ir.Format(s))
	}
	return res
}

func TestExpressions(t *testing.T) {
	body := parse(t, `<?php
$a = 1 + 2 * 3;
$b .= 'x';
$c =& $a;
$i++;
--$j;
$k = !$a && $b or $c;
$l = $m ?? 'd';
$n = (int) $s;
$o = $p ? 1 : 2;
$q = $a[0]['k'];
$r = [1, 'k' => 2];
`)
	assert.Equal(t, []string{
		`$a = 1 + 2 * 3`,
		`$b .= "x"`,
		`$c =& $a`,
		`$i++`,
		`--$j`,
		`$k = !$a && $b or $c`,
		`$l = $m ?? "d"`,
		`$n = (int)$s`,
		`$o = $p ? 1 : 2`,
		`$q = $a[0]["k"]`,
		`$r = [1, "k" => 2]`,
	}, formatted(body))

	mul := body[0].(*ir.ExprStmt).X.(*ir.Assign).Value.(*ir.Binary)
	assert.Equal(t, "+", mul.Op)
	assert.IsType(t, &ir.Binary{}, mul.Right)
}

func TestLiterals(t *testing.T) {
	body := parse(t, `<?php
$a = 0x1F;
$b = 010;
$c = 1_000;
$d = 1.5e3;
$e = true;
$f = NULL;
$g = PHP_EOL;
$h = 99999999999999999999;
`)
	values := make([]ir.Expr, len(body))
	for i, s := range body {
		values[i] = s.(*ir.ExprStmt).X.(*ir.Assign).Value
	}
	assert.Equal(t, int64(31), values[0].(*ir.IntLit).Value)
	assert.Equal(t, int64(8), values[1].(*ir.IntLit).Value)
	assert.Equal(t, int64(1000), values[2].(*ir.IntLit).Value)
	assert.Equal(t, 1500.0, values[3].(*ir.FloatLit).Value)
	assert.Equal(t, true, values[4].(*ir.BoolLit).Value)
	assert.IsType(t, &ir.NullLit{}, values[5])
	assert.Equal(t, "PHP_EOL", values[6].(*ir.ConstFetch).Name)
	assert.IsType(t, &ir.FloatLit{}, values[7])
}

func TestStrings(t *testing.T) {
	body := parse(t, `<?php
$a = 'it\'s \n';
$b = "tab\there\x41\101\u{e9}";
$c = "hello $name!";
$d = "item {$a['k']} and $b[0]";
$e = <<<EOT
line $x
EOT;
$f = <<<'EOT'
raw $x
EOT;
`)
	value := func(i int) ir.Expr { return body[i].(*ir.ExprStmt).X.(*ir.Assign).Value }

	assert.Equal(t, `it's \n`, value(0).(*ir.StringLit).Value)
	assert.Equal(t, "tab\thereAAé", value(1).(*ir.StringLit).Value)

	c := value(2).(*ir.Interpolated)
	require.Len(t, c.Parts, 3)
	assert.Equal(t, "hello ", c.Parts[0].(*ir.StringLit).Value)
	assert.Equal(t, "name", c.Parts[1].(*ir.Variable).Name)
	assert.Equal(t, "!", c.Parts[2].(*ir.StringLit).Value)

	assert.Equal(t, `"item {$a["k"]} and {$b[0]}"`, ir.Format(value(3)))

	e := value(4).(*ir.Interpolated)
	assert.Equal(t, "line ", e.Parts[0].(*ir.StringLit).Value)
	assert.Equal(t, "x", e.Parts[1].(*ir.Variable).Name)

	assert.Equal(t, "raw $x", value(5).(*ir.StringLit).Value)
}

func TestControlFlow(t *testing.T) {
	body := parse(t, `<?php
if ($a) { echo 1; } elseif ($b) { echo 2; } else { echo 3; }
while ($i < 10) { $i++; }
do { $i--; } while ($i > 0);
for ($i = 0, $j = 0; $i < 10; $i++) { continue; }
foreach ($arr as $k => &$v) { break 2; }
switch ($x) {
case 1:
	echo "one";
	break;
default:
	echo "other";
}
try { f(); } catch (\App\MyError | Exception $e) { echo $e; } finally { echo "done"; }
`)
	require.Len(t, body, 7)

	cond := body[0].(*ir.If)
	assert.Equal(t, "$a", ir.Format(cond.Cond))
	assert.Len(t, cond.Then, 1)
	require.Len(t, cond.ElseIfs, 1)
	assert.Equal(t, "$b", ir.Format(cond.ElseIfs[0].Cond))
	assert.Equal(t, []string{"echo 3"}, formatted(cond.Else))

	assert.Equal(t, "while ($i < 10) {...}", ir.Format(body[1]))
	assert.Equal(t, "do {...} while ($i > 0)", ir.Format(body[2]))

	loop := body[3].(*ir.For)
	assert.Len(t, loop.Init, 2)
	assert.Len(t, loop.Cond, 1)
	assert.Len(t, loop.Step, 1)
	assert.Equal(t, []string{"continue 1"}, formatted(loop.Body))

	each := body[4].(*ir.Foreach)
	assert.Equal(t, "$k", ir.Format(each.Key))
	assert.Equal(t, "$v", ir.Format(each.Value))
	assert.True(t, each.ByRef)
	assert.Equal(t, []string{"break 2"}, formatted(each.Body))

	sw := body[5].(*ir.Switch)
	require.Len(t, sw.Cases, 2)
	assert.Equal(t, "1", ir.Format(sw.Cases[0].Cond))
	assert.Len(t, sw.Cases[0].Body, 2)
	assert.Nil(t, sw.Cases[1].Cond)

	try := body[6].(*ir.Try)
	require.Len(t, try.Catches, 1)
	assert.Equal(t, []string{"MyError", "Exception"}, try.Catches[0].Classes)
	assert.Equal(t, "e", try.Catches[0].Var)
	assert.Equal(t, []string{`echo "done"`}, formatted(try.Finally))
}

func TestDeclarations(t *testing.T) {
	body := parse(t, `<?php
function add(&$x, $y = 1) { return $x + $y; }
class Point extends Base implements Countable {
	const ORIGIN = 0;
	public $x = 1;
	public static $count;
	public function __construct(private $y) {}
	public static function create() { return new static(); }
}
const LIMIT = 10;
`)
	require.Len(t, body, 3)

	fn := body[0].(*ir.FunctionDecl)
	assert.Equal(t, "add", fn.Name)
	require.Len(t, fn.Params, 2)
	assert.True(t, fn.Params[0].ByRef)
	assert.Equal(t, "1", ir.Format(fn.Params[1].Default))
	assert.Equal(t, []string{"return $x + $y"}, formatted(fn.Body))

	class := body[1].(*ir.ClassDecl)
	assert.Equal(t, "Point", class.Name)
	assert.Equal(t, "Base", class.Parent)
	assert.Equal(t, []string{"Countable"}, class.Interfaces)
	require.Len(t, class.Consts, 1)
	assert.Equal(t, "ORIGIN", class.Consts[0].Name)
	require.Len(t, class.Methods, 2)
	assert.Equal(t, []string{"$this->y = $y"}, formatted(class.Methods[0].Body))
	assert.True(t, class.Methods[1].Static)
	assert.Same(t, class, class.Methods[1].Class)

	props := map[string]ir.Property{}
	for _, p := range class.Props {
		props[p.Name] = p
	}
	assert.Equal(t, "1", ir.Format(props["x"].Default))
	assert.True(t, props["count"].Static)
	assert.Contains(t, props, "y")

	assert.Equal(t, "LIMIT", body[2].(*ir.ConstStmt).Items[0].Name)
}

func TestCalls(t *testing.T) {
	body := parse(t, `<?php
strlen($s);
$f($x);
$o->m(1, 2);
$o->$name();
Foo::bar();
parent::__construct();
$p = new \App\Point(1);
$q = Point::class;
$r = $p instanceof Point;
$s = isset($a, $b['k']);
$t = empty($a);
eval('$x = 1;');
exit(1);
$u = Point::ORIGIN;
$v = Point::$count;
`)
	assert.Equal(t, []string{
		`strlen($s)`,
		`$f($x)`,
		`$o->m(1, 2)`,
		`$o->()`,
		`Foo::bar()`,
		`parent::__construct()`,
		`$p = new Point(1)`,
		`$q = "Point"`,
		`$r = $p instanceof Point`,
		`$s = isset($a, $b["k"])`,
		`$t = empty($a)`,
		`eval("$x = 1;")`,
		`exit(1)`,
		`$u = Point::ORIGIN`,
		`$v = Point::$count`,
	}, formatted(body))
	assert.Equal(t, "$name", ir.Format(body[3].(*ir.ExprStmt).X.(*ir.MethodCall).NameExpr))
}

func TestIncludes(t *testing.T) {
	body := parse(t, `<?php
include 'a.php';
include_once 'b.php';
require $dir . '/c.php';
require_once 'd.php';
`)
	var kinds []ir.IncludeKind
	for _, s := range body {
		kinds = append(kinds, s.(*ir.ExprStmt).X.(*ir.Include).Kind)
	}
	assert.Equal(t, []ir.IncludeKind{ir.IncludePlain, ir.IncludeOnce, ir.RequirePlain, ir.RequireOnce}, kinds)
	assert.Equal(t, `require $dir . "/c.php"`, ir.Format(body[2]))
}

func TestStatements(t *testing.T) {
	body := parse(t, `<?php
function counter() {
	static $n = 0, $m;
	global $config;
	unset($config['x']);
	throw new RuntimeException("no");
}
`)
	fn := body[0].(*ir.FunctionDecl)
	require.Len(t, fn.Body, 4)
	st := fn.Body[0].(*ir.StaticVar)
	require.Len(t, st.Vars, 2)
	assert.Equal(t, "n", st.Vars[0].Name)
	assert.Equal(t, "0", ir.Format(st.Vars[0].Default))
	assert.Nil(t, st.Vars[1].Default)
	assert.Equal(t, []string{"config"}, fn.Body[1].(*ir.Global).Names)
	assert.Equal(t, `$config["x"]`, ir.Format(fn.Body[2].(*ir.Unset).Vars[0]))
	assert.Equal(t, `new RuntimeException("no")`, ir.Format(fn.Body[3].(*ir.Throw).X))
}

func TestInlineHTML(t *testing.T) {
	body := parse(t, "<html>\n<?php echo $x; ?>\n</html>\n")
	var echoes []string
	for _, s := range body {
		if e, ok := s.(*ir.Echo); ok {
			echoes = append(echoes, ir.Format(e))
		}
	}
	require.NotEmpty(t, echoes)
	assert.Contains(t, echoes[0], "<html>")
	assert.Contains(t, echoes, "echo $x")
}

func TestUnsupportedConstructs(t *testing.T) {
	body := parse(t, `<?php
$f = function ($x) { return $x; };
[$a, , $b] = $pair;
`)
	fn := body[0].(*ir.ExprStmt).X.(*ir.Assign).Value
	assert.IsType(t, &ir.Opaque{}, fn)

	list := body[1].(*ir.ExprStmt).X.(*ir.Assign).Target.(*ir.List)
	require.Len(t, list.Items, 3)
	assert.Nil(t, list.Items[1])
	assert.Equal(t, "$b", ir.Format(list.Items[2]))
}

func TestPositions(t *testing.T) {
	body := parse(t, "<?php\n\n  $a = f($b);\n")
	s := body[0].(*ir.ExprStmt)
	assert.Equal(t, ir.Pos{File: "test.php", Line: 3, Col: 3}, s.Position())
	call := s.X.(*ir.Assign).Value.(*ir.Call)
	assert.Equal(t, 8, call.Position().Col)
	assert.Equal(t, 10, call.Args[0].Position().Col)
}

func TestSyntaxError(t *testing.T) {
	_, err := Parse(context.Background(), "bad.php", []byte("<?php\n$a = ;\n"))
	require.Error(t, err)
	var syntax *SyntaxError
	require.ErrorAs(t, err, &syntax)
	assert.Equal(t, "bad.php", syntax.Pos.File)
	assert.Equal(t, 2, syntax.Pos.Line)
}

func TestParseCode(t *testing.T) {
	f, err := ParseCode(context.Background(), "$x = 1; echo $x;", ir.Pos{File: "main.php", Line: 4})
	require.NoError(t, err)
	assert.Equal(t, []string{"$x = 1", "echo $x"}, formatted(f.Body))
	assert.Equal(t, "main.php", f.Body[0].Position().File)
}
