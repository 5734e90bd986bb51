package gateway

const landingPage = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Abebe Delivery</title>
<style>
body{font-family:system-ui,sans-serif;margin:0;background:#fff8f0;color:#333}
main{max-width:640px;margin:0 auto;padding:48px 24px;text-align:center}
h1{color:#d35400}
a{color:#d35400}
footer{margin-top:48px;font-size:.85em;color:#888}
</style>
</head>
<body>
<main>
<h1>🍔 Abebe Delivery</h1>
<p>Fresh food, delivered fast. Download our app to order.</p>
<footer>
<a href="/privacy">Privacy Policy</a> ·
<a href="/terms">Terms of Service</a> ·
<a href="/account-deletion">Account Deletion</a>
</footer>
</main>
</body>
</html>`

const privacyPage = `<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>Privacy Policy - Abebe Delivery</title></head>
<body style="font-family:system-ui,sans-serif;max-width:720px;margin:0 auto;padding:32px">
<h1>Privacy Policy</h1>
<p>We collect only the data needed to deliver your order: your name, phone
number, delivery address and device push token. Payment proofs you upload are
visible to our operators for verification only.</p>
<p>We never sell your data. Crash reports are collected anonymously to keep
the app stable.</p>
<p>Questions? Contact support through the app.</p>
</body>
</html>`

const termsPage = `<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>Terms of Service - Abebe Delivery</title></head>
<body style="font-family:system-ui,sans-serif;max-width:720px;margin:0 auto;padding:32px">
<h1>Terms of Service</h1>
<p>Orders are confirmed once payment is verified by an operator. Estimated
delivery times are best-effort. Orders can be cancelled free of charge until
they are accepted.</p>
<p>Abusive behaviour toward drivers or staff leads to account suspension.</p>
</body>
</html>`

const accountDeletionPage = `<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>Account Deletion - Abebe Delivery</title></head>
<body style="font-family:system-ui,sans-serif;max-width:720px;margin:0 auto;padding:32px">
<h1>Delete Your Account</h1>
<p>To delete your account and all associated data, open the app and go to
Profile &rarr; Settings &rarr; Delete Account, or contact support through the
app chat. Deletion completes within 30 days.</p>
</body>
</html>`
