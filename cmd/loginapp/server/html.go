package server

import "html/template"

const pageStyle = `
    <style>
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
            max-width: 480px;
            margin: 50px auto;
            padding: 20px;
            background: #f5f5f5;
        }
        .container {
            background: white;
            padding: 30px;
            border-radius: 8px;
            box-shadow: 0 2px 4px rgba(0,0,0,0.1);
        }
        h1 { color: #333; margin-bottom: 10px; }
        label { display: block; margin-top: 16px; color: #555; }
        input {
            width: 100%;
            padding: 10px;
            margin-top: 4px;
            box-sizing: border-box;
            border: 1px solid #ccc;
            border-radius: 4px;
        }
        button {
            background: #4285f4;
            color: white;
            border: none;
            padding: 12px 24px;
            border-radius: 4px;
            cursor: pointer;
            font-size: 16px;
            margin-top: 20px;
        }
        button:hover { background: #3367d6; }
        button.logout { background: #ea4335; }
        .error {
            margin: 16px 0;
            padding: 12px;
            border-radius: 4px;
            background: #fce8e6;
            color: #c5221f;
        }
    </style>`

// loginTemplate renders the sign-in form. The form carries no "required"
// attributes so empty submissions reach the server and get its message.
var loginTemplate = template.Must(template.New("login").Parse(`<!DOCTYPE html>
<html>
<head>
    <title>Acme Banking - Sign in</title>` + pageStyle + `
</head>
<body>
    <div class="container">
        <h1>Sign in</h1>
        {{if .Error}}<div id="error-message" class="error" role="alert">{{.Error}}</div>{{end}}
        <form id="login-form" method="POST" action="/login">
            <label for="username">Username</label>
            <input id="username" name="username" type="text" autocomplete="username" value="{{.Username}}">
            <label for="password">Password</label>
            <input id="password" name="password" type="password" autocomplete="current-password">
            <button type="submit">Sign in</button>
        </form>
    </div>
</body>
</html>
`))

type loginView struct {
	Error    string
	Username string
}

var dashboardTemplate = template.Must(template.New("dashboard").Parse(`<!DOCTYPE html>
<html>
<head>
    <title>Acme Banking - Dashboard</title>` + pageStyle + `
</head>
<body>
    <div class="container" id="dashboard">
        <h1>Dashboard</h1>
        <p>Signed in as <strong id="current-user">{{.Username}}</strong></p>
        <form method="POST" action="/logout">
            <button id="logout" class="logout" type="submit">Sign out</button>
        </form>
    </div>
</body>
</html>
`))

type dashboardView struct {
	Username string
}
